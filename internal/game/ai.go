// internal/game/ai.go
package game

// The auto-play policy covers seats whose player timed out or disconnected.
// It plays the lowest playable rank and saves special cards for when nothing
// else fits, so a stalled lobby always drains to a finish.

// aiSortKey orders ranks low-to-high but pushes the special ranks behind
// every normal rank, so the policy spends them last.
func aiSortKey(r Rank) int {
	switch r {
	case Two, Four, Seven, Ten:
		return int(Ace) + 1 + int(r)
	default:
		return int(r)
	}
}

// AutoChooseFaceup commits the face-up three for an auto-played seat: the
// dealt set stays as it is, which is always a legal choice.
func AutoChooseFaceup(view PlayerView) (Card, Card, Card) {
	return view.FaceUp[0], view.FaceUp[1], view.FaceUp[2]
}

// AutoPlay picks the cards an auto-played seat submits to MakePlay. The
// returned list is empty for a blind face-down reveal. The engine accepts
// the result unconditionally: either it is legal, or the zone holds no legal
// play and the engine resolves it as a pickup.
func AutoPlay(view PlayerView, pile []Card) []Card {
	zone := view.Hand
	if len(zone) == 0 {
		zone = view.FaceUp
	}
	if len(zone) == 0 {
		return nil // face-down territory, reveal blind
	}

	chosen := zone[0]
	found := false
	for _, c := range zone {
		if !Playable(c.Value, pile) {
			continue
		}
		if !found || aiSortKey(c.Value) < aiSortKey(chosen.Value) {
			chosen, found = c, true
		}
	}
	if !found {
		// No legal play: submit the lowest card and let the pickup rule run.
		for _, c := range zone {
			if aiSortKey(c.Value) < aiSortKey(chosen.Value) {
				chosen = c
			}
		}
		return []Card{chosen}
	}

	var run []Card
	for _, c := range zone {
		if c.Value == chosen.Value {
			run = append(run, c)
		}
	}
	return run
}
