// internal/game/state.go
package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
)

// Phase is the session phase. Transitions are forward-only:
// Setup -> Play -> Finished.
type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlay
	PhaseFinished
)

var phaseNames = [3]string{"Setup", "Play", "Finished"}

func (p Phase) String() string {
	if p < PhaseSetup || p > PhaseFinished {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Zone identifies which of a player's card zones a play came from.
type Zone int

const (
	ZoneHand Zone = iota
	ZoneFaceUp
	ZoneFaceDown
)

var zoneNames = [3]string{"Hand", "FaceUpThree", "FaceDownThree"}

func (z Zone) String() string {
	if z < ZoneHand || z > ZoneFaceDown {
		return fmt.Sprintf("Zone(%d)", int(z))
	}
	return zoneNames[z]
}

func (z Zone) MarshalJSON() ([]byte, error) {
	return json.Marshal(z.String())
}

// Validation failures returned by the engine. The lobby layer maps these to
// wire error codes.
var (
	ErrUnknownPlayer      = fmt.Errorf("player is not part of this game")
	ErrGameFinished       = fmt.Errorf("game is finished")
	ErrWrongPhase         = fmt.Errorf("operation not valid in this phase")
	ErrNotYourTurn        = fmt.Errorf("not this player's turn")
	ErrCardNotOwned       = fmt.Errorf("cards not playable from the required zone")
	ErrMixedRanks         = fmt.Errorf("played cards must share one rank")
	ErrIllegalAgainstPile = fmt.Errorf("play is illegal against the pile top")
)

// seat holds one player's zones. Hand and face-up stay sorted so multiset
// removal and run detection are cheap; face-down keeps deal order since the
// blind reveal always takes the last card.
type seat struct {
	id       uuid.UUID
	hand     []Card
	faceUp   []Card
	faceDown []Card
}

func (s *seat) empty() bool {
	return len(s.hand) == 0 && len(s.faceUp) == 0 && len(s.faceDown) == 0
}

// GameState is the Palace turn engine for one session. It is not safe for
// concurrent use; the owning lobby serializes all access.
type GameState struct {
	phase    Phase
	seats    []*seat     // roster order, immutable after New
	order    []uuid.UUID // players not yet finished, in turn order
	turn     int         // index into order
	commits  int         // face-up sets committed during Setup
	pile     []Card
	deck     []Card // undealt remainder, inert after the deal
	discard  []Card // burned cards
	finished []uuid.UUID
	numSeats int

	lastPlayed []Card
	lastZone   Zone
	hasLast    bool
}

// New deals a fresh session for the given players, in roster order (join
// order is turn order). At least two players are required.
func New(playerIDs []uuid.UUID, rng *rand.Rand) (*GameState, error) {
	if len(playerIDs) < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d", len(playerIDs))
	}
	deck := NewDeck(len(playerIDs))
	Shuffle(deck, rng)

	g := &GameState{
		phase:    PhaseSetup,
		order:    append([]uuid.UUID(nil), playerIDs...),
		numSeats: len(playerIDs),
	}
	next := 0
	draw := func(n int) []Card {
		cards := append([]Card(nil), deck[next:next+n]...)
		next += n
		return cards
	}
	for _, id := range playerIDs {
		s := &seat{
			id:       id,
			faceUp:   draw(FaceUpCount),
			faceDown: draw(FaceDownCount),
			hand:     draw(HandSize),
		}
		sortCards(s.hand)
		sortCards(s.faceUp)
		g.seats = append(g.seats, s)
	}
	g.deck = deck[next:]
	return g, nil
}

// Phase returns the current session phase.
func (g *GameState) Phase() Phase { return g.phase }

// CurrentPlayer returns the player whose turn it is. ok is false once the
// session is finished.
func (g *GameState) CurrentPlayer() (uuid.UUID, bool) {
	if g.phase == PhaseFinished || len(g.order) == 0 {
		return uuid.Nil, false
	}
	return g.order[g.turn], true
}

// Pile returns a copy of the active pile, bottom first.
func (g *GameState) Pile() []Card {
	return append([]Card(nil), g.pile...)
}

// TurnOrder returns a copy of the remaining turn order.
func (g *GameState) TurnOrder() []uuid.UUID {
	return append([]uuid.UUID(nil), g.order...)
}

// FinishOrder returns player ids in finishing order. Once the session is
// finished the final entry is the loser.
func (g *GameState) FinishOrder() []uuid.UUID {
	return append([]uuid.UUID(nil), g.finished...)
}

func (g *GameState) seatOf(id uuid.UUID) *seat {
	for _, s := range g.seats {
		if s.id == id {
			return s
		}
	}
	return nil
}

func (g *GameState) checkTurn(id uuid.UUID) (*seat, error) {
	if g.phase == PhaseFinished {
		return nil, ErrGameFinished
	}
	s := g.seatOf(id)
	if s == nil {
		return nil, ErrUnknownPlayer
	}
	if g.order[g.turn] != id {
		return nil, ErrNotYourTurn
	}
	return s, nil
}

// ChooseFaceup commits a player's three face-up cards during Setup. The
// chosen cards may come from the hand, the dealt face-up set, or both;
// whatever is not chosen ends up in the hand. Commits run in turn order, one
// player at a time; the last commit moves the session to Play.
func (g *GameState) ChooseFaceup(id uuid.UUID, c1, c2, c3 Card) error {
	s, err := g.checkTurn(id)
	if err != nil {
		return err
	}
	if g.phase != PhaseSetup {
		return ErrWrongPhase
	}

	pool := append(append([]Card(nil), s.hand...), s.faceUp...)
	rest, ok := removeCards(pool, []Card{c1, c2, c3})
	if !ok {
		return ErrCardNotOwned
	}

	s.faceUp = []Card{c1, c2, c3}
	sortCards(s.faceUp)
	s.hand = rest
	sortCards(s.hand)

	g.commits++
	g.turn = (g.turn + 1) % len(g.order)
	if g.commits == len(g.order) {
		g.phase = PhasePlay
		g.turn = 0
	}
	return nil
}

// PlayResult describes what a successful MakePlay did, so the lobby can
// report it without re-deriving engine state.
type PlayResult struct {
	Zone     Zone   // zone the cards came from
	Played   []Card // cards placed on (or revealed onto) the pile
	PickedUp bool   // pile (and play) went into the player's hand
	Burned   bool   // pile was cleared into the discard store
	Finished bool   // the acting player emptied all zones
	GameOver bool   // the session reached Finished
}

// MakePlay applies one play for the current-turn player.
//
// cards must all share one rank and come from the hand while it is
// non-empty, else from the face-up set while it is non-empty. With both
// empty, cards must be the empty list: the engine reveals the player's last
// face-down card blind. A blind reveal that is illegal against the pile
// moves the pile plus the revealed card into the hand. A named play that is
// illegal is rejected while a playable alternative exists in the source
// zone, and is otherwise accepted as a forced pickup.
func (g *GameState) MakePlay(id uuid.UUID, cards []Card) (PlayResult, error) {
	s, err := g.checkTurn(id)
	if err != nil {
		return PlayResult{}, err
	}
	if g.phase != PhasePlay {
		return PlayResult{}, ErrWrongPhase
	}

	for i := 1; i < len(cards); i++ {
		if cards[i].Value != cards[0].Value {
			return PlayResult{}, ErrMixedRanks
		}
	}

	// Resolve the source zone per the sourcing rule.
	var zone Zone
	var source *[]Card
	switch {
	case len(s.hand) > 0:
		zone, source = ZoneHand, &s.hand
	case len(s.faceUp) > 0:
		zone, source = ZoneFaceUp, &s.faceUp
	default:
		zone = ZoneFaceDown
	}

	if zone == ZoneFaceDown {
		if len(cards) != 0 {
			return PlayResult{}, ErrCardNotOwned
		}
		return g.playBlind(s), nil
	}

	if len(cards) == 0 {
		// An empty play is only the blind-reveal request; with cards still
		// in hand or face-up it is a sourcing violation, never reinterpreted.
		return PlayResult{}, ErrCardNotOwned
	}
	rest, ok := removeCards(*source, cards)
	if !ok {
		return PlayResult{}, ErrCardNotOwned
	}

	if !Playable(cards[0].Value, g.pile) {
		if anyPlayable(*source, g.pile) {
			return PlayResult{}, ErrIllegalAgainstPile
		}
		// Nothing in the zone is playable: forced pickup keeps the game
		// moving. The played cards join the pile, then the whole pile goes
		// to the hand.
		*source = rest
		g.pile = append(g.pile, cards...)
		g.setLast(cards, zone)
		g.pickUpPile(s)
		g.advance()
		return PlayResult{Zone: zone, Played: cards, PickedUp: true}, nil
	}

	*source = rest
	g.pile = append(g.pile, cards...)
	g.setLast(cards, zone)
	return g.settle(s, zone, cards), nil
}

// playBlind reveals the player's last face-down card onto the pile.
func (g *GameState) playBlind(s *seat) PlayResult {
	last := len(s.faceDown) - 1
	card := s.faceDown[last]
	s.faceDown = s.faceDown[:last]
	played := []Card{card}

	g.pile = append(g.pile, card)
	g.setLast(played, ZoneFaceDown)

	if !Playable(card.Value, g.pile[:len(g.pile)-1]) {
		g.pickUpPile(s)
		g.advance()
		return PlayResult{Zone: ZoneFaceDown, Played: played, PickedUp: true}
	}
	return g.settle(s, ZoneFaceDown, played)
}

// settle finishes a legal play: finish-rank bookkeeping, burns, and turn
// advancement.
func (g *GameState) settle(s *seat, zone Zone, played []Card) PlayResult {
	res := PlayResult{Zone: zone, Played: played}

	if s.empty() {
		res.Finished = true
		g.finished = append(g.finished, s.id)
		g.order = append(g.order[:g.turn], g.order[g.turn+1:]...)
		if g.turn >= len(g.order) {
			g.turn = 0
		}
		if len(g.order) == 1 {
			// Last player standing loses and takes the final rank.
			g.finished = append(g.finished, g.order[0])
			g.order = nil
			g.phase = PhaseFinished
			res.GameOver = true
		}
	}

	if played[0].Value == Ten || topRunBurns(g.pile, g.numSeats) {
		g.discard = append(g.discard, g.pile...)
		g.pile = nil
		res.Burned = true
		// A burn keeps the turn, so only the finisher's removal advances it.
	} else if !res.Finished && !res.GameOver {
		g.advance()
	}
	return res
}

func (g *GameState) pickUpPile(s *seat) {
	s.hand = append(s.hand, g.pile...)
	sortCards(s.hand)
	g.pile = nil
}

func (g *GameState) advance() {
	if len(g.order) == 0 {
		return
	}
	g.turn = (g.turn + 1) % len(g.order)
}

func (g *GameState) setLast(cards []Card, zone Zone) {
	g.lastPlayed = append([]Card(nil), cards...)
	g.lastZone = zone
	g.hasLast = true
}

// PlayerView is the private per-player snapshot carried by a HandEvent.
type PlayerView struct {
	Hand     []Card `json:"hand"`
	FaceUp   []Card `json:"face_up"`
	FaceDown []Card `json:"face_down"`
}

// View returns a player's exact zone contents. ok is false for unknown ids.
func (g *GameState) View(id uuid.UUID) (PlayerView, bool) {
	s := g.seatOf(id)
	if s == nil {
		return PlayerView{}, false
	}
	return PlayerView{
		Hand:     append([]Card{}, s.hand...),
		FaceUp:   append([]Card{}, s.faceUp...),
		FaceDown: append([]Card{}, s.faceDown...),
	}, true
}

// PublicSeat is the all-players-visible slice of one player's state.
type PublicSeat struct {
	PlayerID     uuid.UUID `json:"player_id"`
	HandSize     int       `json:"hand_size"`
	FaceUp       []Card    `json:"face_up"`
	FaceDownSize int       `json:"face_down_size"`
	FinishRank   *int      `json:"finish_rank,omitempty"`
}

// PublicState is the lobby-wide snapshot carried by a PublicGameStateEvent.
// It exposes only information visible to every player.
type PublicState struct {
	Phase           Phase        `json:"phase"`
	CurrentPlayer   *uuid.UUID   `json:"current_player,omitempty"`
	TopCard         *Card        `json:"top_card,omitempty"`
	PileSize        int          `json:"pile_size"`
	DeckSize        int          `json:"deck_size"`
	ClearedSize     int          `json:"cleared_size"`
	LastCardsPlayed []Card       `json:"last_cards_played"`
	LastPlayedZone  *Zone        `json:"last_played_zone,omitempty"`
	Players         []PublicSeat `json:"players"`
}

// Public builds the shared snapshot in roster order.
func (g *GameState) Public() PublicState {
	ps := PublicState{
		Phase:           g.phase,
		PileSize:        len(g.pile),
		DeckSize:        len(g.deck),
		ClearedSize:     len(g.discard),
		LastCardsPlayed: append([]Card{}, g.lastPlayed...),
	}
	if cur, ok := g.CurrentPlayer(); ok {
		id := cur
		ps.CurrentPlayer = &id
	}
	if len(g.pile) > 0 {
		top := g.pile[len(g.pile)-1]
		ps.TopCard = &top
	}
	if g.hasLast {
		z := g.lastZone
		ps.LastPlayedZone = &z
	}
	for _, s := range g.seats {
		seat := PublicSeat{
			PlayerID:     s.id,
			HandSize:     len(s.hand),
			FaceUp:       append([]Card{}, s.faceUp...),
			FaceDownSize: len(s.faceDown),
		}
		for rank, id := range g.finished {
			if id == s.id {
				r := rank
				seat.FinishRank = &r
				break
			}
		}
		ps.Players = append(ps.Players, seat)
	}
	return ps
}

func sortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Less(cards[j]) })
}

// removeCards removes one occurrence of each wanted card from zone,
// returning the remainder. ok is false if any wanted card is missing; the
// input slice is never mutated.
func removeCards(zone []Card, wanted []Card) (rest []Card, ok bool) {
	taken := make([]bool, len(wanted))
	rest = make([]Card, 0, len(zone))
outer:
	for _, c := range zone {
		for i, w := range wanted {
			if !taken[i] && c == w {
				taken[i] = true
				continue outer
			}
		}
		rest = append(rest, c)
	}
	for _, t := range taken {
		if !t {
			return nil, false
		}
	}
	return rest, true
}
