// internal/game/card.go
package game

import (
	"encoding/json"
	"fmt"
)

// Rank is one of the thirteen card values, ordered Two (lowest) to Ace.
type Rank int

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Ranks lists every rank in ascending order.
var Ranks = [13]Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

var rankNames = [13]string{
	"Two", "Three", "Four", "Five", "Six", "Seven", "Eight",
	"Nine", "Ten", "Jack", "Queen", "King", "Ace",
}

func (r Rank) String() string {
	if r < Two || r > Ace {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// ParseRank maps a rank name ("Two".."Ace") back to its Rank.
func ParseRank(s string) (Rank, error) {
	for i, name := range rankNames {
		if name == s {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

// MarshalJSON encodes the rank as its name, matching the wire card shape.
func (r Rank) MarshalJSON() ([]byte, error) {
	if r < Two || r > Ace {
		return nil, fmt.Errorf("cannot marshal invalid rank %d", int(r))
	}
	return json.Marshal(rankNames[r])
}

func (r *Rank) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRank(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Suit is one of the four card suits.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit.
var Suits = [4]Suit{Clubs, Diamonds, Hearts, Spades}

var suitNames = [4]string{"Clubs", "Diamonds", "Hearts", "Spades"}

func (s Suit) String() string {
	if s < Clubs || s > Spades {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// ParseSuit maps a suit name back to its Suit.
func ParseSuit(v string) (Suit, error) {
	for i, name := range suitNames {
		if name == v {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", v)
}

func (s Suit) MarshalJSON() ([]byte, error) {
	if s < Clubs || s > Spades {
		return nil, fmt.Errorf("cannot marshal invalid suit %d", int(s))
	}
	return json.Marshal(suitNames[s])
}

func (s *Suit) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := ParseSuit(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Card is an immutable (rank, suit) pair. Equality is by value; cards are
// compared and stored as plain values everywhere in the engine.
//
// Wire shape: {"value": "<RankName>", "suit": "<SuitName>"}.
type Card struct {
	Value Rank `json:"value"`
	Suit  Suit `json:"suit"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Value, c.Suit)
}

// Less orders cards by rank, then suit. Used to keep zones sorted so that
// multiset removal and equal-rank run detection stay simple.
func (c Card) Less(other Card) bool {
	if c.Value != other.Value {
		return c.Value < other.Value
	}
	return c.Suit < other.Suit
}
