// internal/game/rules.go
//
// The Palace legality table. Twos and Fours are always playable; Fours are
// transparent when reading the pile top; Tens burn the pile unless the
// effective top is a Seven; a Seven inverts the ordering for the next play.
package game

// EffectiveTopRank returns the rank the next play must answer to: the top of
// the pile with Fours skipped. An empty (or all-Fours) pile reads as Two, the
// lowest rank, so anything is playable onto it.
func EffectiveTopRank(pile []Card) Rank {
	for i := len(pile) - 1; i >= 0; i-- {
		if pile[i].Value != Four {
			return pile[i].Value
		}
	}
	return Two
}

// Playable reports whether a card of the given rank may be placed on the pile
// without picking it up.
func Playable(r Rank, pile []Card) bool {
	top := EffectiveTopRank(pile)
	switch {
	case r == Two, r == Four:
		return true
	case r == Ten:
		return top != Seven
	case top == Seven:
		return r <= Seven
	default:
		return r >= top
	}
}

// anyPlayable reports whether the zone holds at least one playable card.
func anyPlayable(zone []Card, pile []Card) bool {
	for _, c := range zone {
		if Playable(c.Value, pile) {
			return true
		}
	}
	return false
}

// topRunBurns reports whether the top of the pile ends in a same-rank run
// (Fours skipped) exactly as long as the seat count, which burns the pile.
func topRunBurns(pile []Card, numSeats int) bool {
	if len(pile) == 0 {
		return false
	}
	var top Rank
	found := false
	run := 0
	for i := len(pile) - 1; i >= 0; i-- {
		r := pile[i].Value
		if !found {
			top = r
			found = true
		}
		switch {
		case r == top:
			run++
		case r == Four:
			continue
		default:
			return run == numSeats
		}
	}
	return run == numSeats
}
