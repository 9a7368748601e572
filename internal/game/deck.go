// internal/game/deck.go
package game

import "math/rand"

// Deal counts per seat.
const (
	HandSize      = 6
	FaceUpCount   = 3
	FaceDownCount = 3
)

// NewDeck builds the deck for a game with the given number of seats: thirteen
// ranks per seat, suits cycled over at most four. Four seats yields exactly
// the standard 52-card deck; fewer seats use one suit per seat so every card
// stays unique.
func NewDeck(numSeats int) []Card {
	numSuits := numSeats
	if numSuits > len(Suits) {
		numSuits = len(Suits)
	}
	deck := make([]Card, 0, numSeats*len(Ranks))
	for i := 0; i < numSeats*len(Ranks); i++ {
		deck = append(deck, Card{
			Value: Ranks[i%len(Ranks)],
			Suit:  Suits[i%numSuits],
		})
	}
	return deck
}

// Shuffle permutes the deck in place.
func Shuffle(deck []Card, rng *rand.Rand) {
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
