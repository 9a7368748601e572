// internal/game/state_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(r Rank, s Suit) Card { return Card{Value: r, Suit: s} }

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

// playState builds a mid-game state with the given per-player hands, empty
// face-up/face-down zones, and an empty pile. Turn order is roster order.
func playState(t *testing.T, hands ...[]Card) (*GameState, []uuid.UUID) {
	t.Helper()
	players := ids(len(hands))
	g := &GameState{phase: PhasePlay, numSeats: len(hands)}
	for i, id := range players {
		g.seats = append(g.seats, &seat{id: id, hand: append([]Card(nil), hands[i]...)})
		g.order = append(g.order, id)
	}
	return g, players
}

func TestDealConservation(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5} {
		g, err := New(ids(n), rand.New(rand.NewSource(1)))
		require.NoError(t, err)

		total := len(g.deck)
		for _, s := range g.seats {
			assert.Len(t, s.hand, HandSize)
			assert.Len(t, s.faceUp, FaceUpCount)
			assert.Len(t, s.faceDown, FaceDownCount)
			total += len(s.hand) + len(s.faceUp) + len(s.faceDown)
		}
		assert.Equal(t, len(Ranks)*n, total, "every dealt card accounted for with %d players", n)
		assert.Equal(t, PhaseSetup, g.Phase())
	}
}

func TestNewRequiresTwoPlayers(t *testing.T) {
	_, err := New(ids(1), rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestTurnOrderIsJoinOrder(t *testing.T) {
	players := ids(3)
	g, err := New(players, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.Equal(t, players, g.TurnOrder())
	cur, ok := g.CurrentPlayer()
	require.True(t, ok)
	assert.Equal(t, players[0], cur)
}

func TestChooseFaceup(t *testing.T) {
	players := ids(2)
	g, err := New(players, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	s := g.seats[0]

	t.Run("out of turn", func(t *testing.T) {
		other := g.seats[1]
		err := g.ChooseFaceup(players[1], other.faceUp[0], other.faceUp[1], other.faceUp[2])
		assert.ErrorIs(t, err, ErrNotYourTurn)
	})

	t.Run("cards outside the pool rejected without mutation", func(t *testing.T) {
		hand := append([]Card(nil), s.hand...)
		up := append([]Card(nil), s.faceUp...)
		// A face-down card is never choosable.
		err := g.ChooseFaceup(players[0], s.faceDown[0], s.faceUp[0], s.faceUp[1])
		assert.ErrorIs(t, err, ErrCardNotOwned)
		assert.Equal(t, hand, s.hand)
		assert.Equal(t, up, s.faceUp)
	})

	t.Run("swap from hand", func(t *testing.T) {
		pick := []Card{s.hand[0], s.hand[1], s.faceUp[0]}
		require.NoError(t, g.ChooseFaceup(players[0], pick[0], pick[1], pick[2]))
		assert.ElementsMatch(t, pick, s.faceUp)
		assert.Len(t, s.hand, HandSize)
		assert.Equal(t, PhaseSetup, g.Phase())

		cur, _ := g.CurrentPlayer()
		assert.Equal(t, players[1], cur)
	})

	t.Run("last commit starts play", func(t *testing.T) {
		o := g.seats[1]
		require.NoError(t, g.ChooseFaceup(players[1], o.faceUp[0], o.faceUp[1], o.faceUp[2]))
		assert.Equal(t, PhasePlay, g.Phase())
		cur, _ := g.CurrentPlayer()
		assert.Equal(t, players[0], cur)
	})

	t.Run("rejected once play started", func(t *testing.T) {
		err := g.ChooseFaceup(players[0], s.faceUp[0], s.faceUp[1], s.faceUp[2])
		assert.ErrorIs(t, err, ErrWrongPhase)
	})
}

func TestEffectiveTopRank(t *testing.T) {
	assert.Equal(t, Two, EffectiveTopRank(nil))
	assert.Equal(t, King, EffectiveTopRank([]Card{card(King, Hearts)}))
	assert.Equal(t, King, EffectiveTopRank([]Card{card(King, Hearts), card(Four, Spades)}))
	assert.Equal(t, Two, EffectiveTopRank([]Card{card(Four, Clubs), card(Four, Spades)}))
}

func TestPlayable(t *testing.T) {
	sevenTop := []Card{card(Seven, Hearts)}
	kingTop := []Card{card(King, Hearts)}

	assert.True(t, Playable(Two, kingTop), "twos always playable")
	assert.True(t, Playable(Four, kingTop), "fours always playable")
	assert.True(t, Playable(Ten, kingTop))
	assert.False(t, Playable(Ten, sevenTop), "ten cannot answer a seven")
	assert.True(t, Playable(Three, sevenTop), "seven inverts the ordering")
	assert.False(t, Playable(Eight, sevenTop))
	assert.False(t, Playable(Three, kingTop))
	assert.True(t, Playable(Ace, kingTop))
	assert.True(t, Playable(Three, nil), "anything answers an empty pile")
}

func TestNormalPlayAdvances(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts), card(Nine, Clubs)},
		[]Card{card(Five, Spades), card(Jack, Diamonds)},
	)

	res, err := g.MakePlay(players[0], []Card{card(Three, Hearts)})
	require.NoError(t, err)
	assert.Equal(t, ZoneHand, res.Zone)
	assert.False(t, res.Burned)
	assert.False(t, res.PickedUp)

	cur, _ := g.CurrentPlayer()
	assert.Equal(t, players[1], cur)
	pub := g.Public()
	require.NotNil(t, pub.TopCard)
	assert.Equal(t, card(Three, Hearts), *pub.TopCard)
}

func TestMixedRanksRejected(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts), card(Five, Clubs)},
		[]Card{card(Nine, Spades)},
	)
	_, err := g.MakePlay(players[0], []Card{card(Three, Hearts), card(Five, Clubs)})
	assert.ErrorIs(t, err, ErrMixedRanks)
	assert.Len(t, g.seats[0].hand, 2)
	assert.Empty(t, g.pile)
}

func TestCardNotOwnedNoMutation(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts)},
		[]Card{card(Nine, Spades)},
	)
	before := append([]Card(nil), g.seats[0].hand...)

	_, err := g.MakePlay(players[0], []Card{card(Three, Spades)})
	assert.ErrorIs(t, err, ErrCardNotOwned)

	// Duplicates of an owned card are a miss too.
	_, err = g.MakePlay(players[0], []Card{card(Three, Hearts), card(Three, Hearts)})
	assert.ErrorIs(t, err, ErrCardNotOwned)

	assert.Equal(t, before, g.seats[0].hand)
	assert.Empty(t, g.pile)
	cur, _ := g.CurrentPlayer()
	assert.Equal(t, players[0], cur)
}

func TestEmptyPlayWithHandRejected(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts)},
		[]Card{card(Nine, Spades)},
	)
	_, err := g.MakePlay(players[0], nil)
	assert.ErrorIs(t, err, ErrCardNotOwned)
}

func TestHandMustEmptyBeforeFaceUp(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts)},
		[]Card{card(Nine, Spades)},
	)
	g.seats[0].faceUp = []Card{card(King, Clubs)}

	_, err := g.MakePlay(players[0], []Card{card(King, Clubs)})
	assert.ErrorIs(t, err, ErrCardNotOwned, "face-up cards locked while the hand is non-empty")
}

func TestIllegalPlayRejectedWhenAlternativeExists(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts), card(Ace, Clubs)},
		[]Card{card(Nine, Spades)},
	)
	g.pile = []Card{card(King, Hearts)}

	_, err := g.MakePlay(players[0], []Card{card(Three, Hearts)})
	assert.ErrorIs(t, err, ErrIllegalAgainstPile)
	assert.Len(t, g.seats[0].hand, 2)
	assert.Len(t, g.pile, 1)
}

func TestForcedPickupWhenNothingPlayable(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts), card(Five, Clubs)},
		[]Card{card(Nine, Spades)},
	)
	g.pile = []Card{card(King, Hearts)}

	res, err := g.MakePlay(players[0], []Card{card(Three, Hearts)})
	require.NoError(t, err)
	assert.True(t, res.PickedUp)
	assert.Empty(t, g.pile)
	// Hand holds the old pile, the played card, and the untouched five.
	assert.ElementsMatch(t,
		[]Card{card(King, Hearts), card(Three, Hearts), card(Five, Clubs)},
		g.seats[0].hand)

	cur, _ := g.CurrentPlayer()
	assert.Equal(t, players[1], cur)
}

func TestTenBurnsWithoutRotating(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Ten, Hearts), card(Three, Clubs)},
		[]Card{card(Nine, Spades)},
	)
	g.pile = []Card{card(King, Hearts)}
	g.discard = nil

	res, err := g.MakePlay(players[0], []Card{card(Ten, Hearts)})
	require.NoError(t, err)
	assert.True(t, res.Burned)
	assert.Empty(t, g.pile)
	assert.Len(t, g.discard, 2)

	cur, _ := g.CurrentPlayer()
	assert.Equal(t, players[0], cur, "a burn keeps the turn")
}

func TestRunOfSeatCountBurns(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts), card(Three, Clubs), card(Two, Spades)},
		[]Card{card(Three, Spades), card(Nine, Diamonds)},
		[]Card{card(Nine, Hearts)},
	)

	_, err := g.MakePlay(players[0], []Card{card(Three, Hearts), card(Three, Clubs)})
	require.NoError(t, err)

	res, err := g.MakePlay(players[1], []Card{card(Three, Spades)})
	require.NoError(t, err)
	assert.True(t, res.Burned, "run of three threes with three seats burns")
	assert.Empty(t, g.pile)

	cur, _ := g.CurrentPlayer()
	assert.Equal(t, players[1], cur)
}

func TestOverlongRunDoesNotBurn(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts), card(Three, Clubs), card(Three, Spades)},
		[]Card{card(Nine, Spades)},
	)

	res, err := g.MakePlay(players[0], []Card{
		card(Three, Hearts), card(Three, Clubs), card(Three, Spades),
	})
	require.NoError(t, err)
	assert.False(t, res.Burned, "run of three with two seats is not a burn")
	assert.Len(t, g.pile, 3)
}

func TestRunBurnSkipsFours(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Three, Hearts), card(Two, Clubs)},
		[]Card{card(Three, Spades), card(Nine, Diamonds)},
	)
	g.pile = []Card{card(Three, Diamonds), card(Four, Hearts)}

	res, err := g.MakePlay(players[0], []Card{card(Three, Hearts)})
	require.NoError(t, err)
	assert.True(t, res.Burned, "the four between the threes is transparent")
}

func TestBlindReveal(t *testing.T) {
	t.Run("playable reveal stays down", func(t *testing.T) {
		g, players := playState(t, nil, []Card{card(Nine, Spades)})
		g.seats[0].faceDown = []Card{card(Five, Clubs), card(King, Hearts)}
		g.pile = []Card{card(Three, Diamonds)}

		res, err := g.MakePlay(players[0], nil)
		require.NoError(t, err)
		assert.Equal(t, ZoneFaceDown, res.Zone)
		assert.Equal(t, []Card{card(King, Hearts)}, res.Played)
		assert.False(t, res.PickedUp)
		assert.Len(t, g.seats[0].faceDown, 1)
	})

	t.Run("unplayable reveal picks up the pile", func(t *testing.T) {
		g, players := playState(t, nil, []Card{card(Nine, Spades)})
		g.seats[0].faceDown = []Card{card(Three, Clubs)}
		g.pile = []Card{card(King, Diamonds)}

		res, err := g.MakePlay(players[0], nil)
		require.NoError(t, err)
		assert.True(t, res.PickedUp)
		assert.Empty(t, g.seats[0].faceDown)
		assert.ElementsMatch(t,
			[]Card{card(King, Diamonds), card(Three, Clubs)},
			g.seats[0].hand)
		cur, _ := g.CurrentPlayer()
		assert.Equal(t, players[1], cur)
	})

	t.Run("naming cards while blind rejected", func(t *testing.T) {
		g, players := playState(t, nil, []Card{card(Nine, Spades)})
		g.seats[0].faceDown = []Card{card(Three, Clubs)}

		_, err := g.MakePlay(players[0], []Card{card(Three, Clubs)})
		assert.ErrorIs(t, err, ErrCardNotOwned)
		assert.Len(t, g.seats[0].faceDown, 1)
	})
}

func TestFinishAndGameOver(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Ace, Hearts)},
		[]Card{card(Two, Spades)},
		[]Card{card(Nine, Hearts)},
	)

	res, err := g.MakePlay(players[0], []Card{card(Ace, Hearts)})
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.False(t, res.GameOver)
	assert.Equal(t, []uuid.UUID{players[0]}, g.FinishOrder())
	assert.Equal(t, []uuid.UUID{players[1], players[2]}, g.TurnOrder())

	cur, _ := g.CurrentPlayer()
	assert.Equal(t, players[1], cur)

	// Finished players can no longer act.
	_, err = g.MakePlay(players[0], nil)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	res, err = g.MakePlay(players[1], []Card{card(Two, Spades)})
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.True(t, res.GameOver)
	assert.Equal(t, PhaseFinished, g.Phase())
	assert.Equal(t, []uuid.UUID{players[0], players[1], players[2]}, g.FinishOrder(),
		"last seat standing takes the final rank")

	_, ok := g.CurrentPlayer()
	assert.False(t, ok)

	_, err = g.MakePlay(players[2], []Card{card(Nine, Hearts)})
	assert.ErrorIs(t, err, ErrGameFinished)
	err = g.ChooseFaceup(players[2], card(Two, Clubs), card(Two, Hearts), card(Nine, Hearts))
	assert.ErrorIs(t, err, ErrGameFinished)
}

func TestTenAsFinalCardStillRotates(t *testing.T) {
	g, players := playState(t,
		[]Card{card(Ten, Hearts)},
		[]Card{card(Nine, Spades)},
		[]Card{card(Jack, Clubs)},
	)
	g.pile = []Card{card(Three, Diamonds)}

	res, err := g.MakePlay(players[0], []Card{card(Ten, Hearts)})
	require.NoError(t, err)
	assert.True(t, res.Burned)
	assert.True(t, res.Finished)

	cur, _ := g.CurrentPlayer()
	assert.Equal(t, players[1], cur, "the finisher cannot keep a turn")
}

func TestUnknownPlayer(t *testing.T) {
	g, _ := playState(t, []Card{card(Three, Hearts)}, []Card{card(Nine, Spades)})
	_, err := g.MakePlay(uuid.New(), nil)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestPublicStateHidesPrivateZones(t *testing.T) {
	players := ids(2)
	g, err := New(players, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	pub := g.Public()
	assert.Equal(t, PhaseSetup, pub.Phase)
	require.Len(t, pub.Players, 2)
	for _, p := range pub.Players {
		assert.Equal(t, HandSize, p.HandSize)
		assert.Len(t, p.FaceUp, FaceUpCount)
		assert.Equal(t, FaceDownCount, p.FaceDownSize)
		assert.Nil(t, p.FinishRank)
	}
	assert.Nil(t, pub.TopCard)
	require.NotNil(t, pub.CurrentPlayer)
	assert.Equal(t, players[0], *pub.CurrentPlayer)
}

func TestViewMatchesZones(t *testing.T) {
	players := ids(2)
	g, err := New(players, rand.New(rand.NewSource(13)))
	require.NoError(t, err)

	v, ok := g.View(players[1])
	require.True(t, ok)
	assert.Equal(t, g.seats[1].hand, v.Hand)
	assert.Equal(t, g.seats[1].faceUp, v.FaceUp)
	assert.Equal(t, g.seats[1].faceDown, v.FaceDown)

	_, ok = g.View(uuid.New())
	assert.False(t, ok)
}
