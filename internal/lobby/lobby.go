// internal/lobby/lobby.go
package lobby

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palace-game/palace/internal/auth"
	"github.com/palace-game/palace/internal/game"
	"github.com/palace-game/palace/internal/protocol"
)

// Timing bundles the turn clock knobs a lobby needs.
type Timing struct {
	// TurnTimer is the advertised per-turn allowance; Leeway is added
	// server-side so client countdowns never lose the race.
	TurnTimer time.Duration
	Leeway    time.Duration
	// AIMoveDelay paces moves for seats already under AI control.
	AIMoveDelay time.Duration
}

// Lobby is one game room: roster, optional running session, turn deadline,
// and the outbound seams of every subscribed connection. A single mutex
// serializes every mutation, including timer expiry.
type Lobby struct {
	ID         uuid.UUID
	Name       string
	MaxPlayers uint8
	OwnerID    uuid.UUID
	CreatedAt  time.Time

	passwordHash string // empty means open lobby

	mu           sync.Mutex
	players      []*Player // join order; never shrinks
	game         *game.GameState
	initialOrder []uuid.UUID
	rng          *rand.Rand
	timing       Timing

	// turnGen stamps the active deadline; expiry callbacks holding a stale
	// generation are no-ops.
	turnGen   int
	turnTimer *time.Timer

	log *logrus.Entry
}

// New creates a lobby with its owner already seated. password may be empty.
func New(name, ownerName, password string, maxPlayers uint8, timing Timing, owner *Conn, log *logrus.Logger) (*Lobby, *Player, error) {
	var hash string
	if password != "" {
		var err error
		if hash, err = auth.HashPassword(password); err != nil {
			return nil, nil, err
		}
	}

	id := uuid.New()
	p := &Player{ID: uuid.New(), Name: ownerName, Control: HumanConnected, Conn: owner}
	l := &Lobby{
		ID:           id,
		Name:         name,
		MaxPlayers:   maxPlayers,
		OwnerID:      p.ID,
		CreatedAt:    time.Now(),
		passwordHash: hash,
		players:      []*Player{p},
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		timing:       timing,
		log:          log.WithFields(logrus.Fields{"lobby_id": id, "lobby": name}),
	}
	return l, p, nil
}

// Join seats a new player. The response and the PlayerJoinEvent broadcast
// both happen under the lobby lock, so subscribers observe them in order.
// The returned id is Nil when the join was rejected.
func (l *Lobby) Join(conn *Conn, name, password string) uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()

	respond := func(code string) uuid.UUID {
		conn.SendMessage(protocol.TagJoinLobbyResponse, protocol.Err(code))
		return uuid.Nil
	}
	if name == "" {
		return respond(protocol.CodeEmptyPlayerName)
	}
	if l.game != nil {
		return respond(protocol.CodeGameInProgress)
	}
	if len(l.players) >= int(l.MaxPlayers) {
		return respond(protocol.CodeLobbyFull)
	}
	if l.passwordHash != "" {
		ok, err := auth.VerifyPassword(password, l.passwordHash)
		if err != nil {
			l.log.WithError(err).Error("verify lobby password")
			conn.SendMessage(protocol.TagInternalServerError, nil)
			return uuid.Nil
		}
		if !ok {
			return respond(protocol.CodeBadPassword)
		}
	}

	p := &Player{ID: uuid.New(), Name: name, Control: HumanConnected, Conn: conn}
	l.players = append(l.players, p)
	l.log.WithFields(logrus.Fields{"player_id": p.ID, "player": name}).Info("player joined")

	conn.SendMessage(protocol.TagJoinLobbyResponse, protocol.Ok(protocol.JoinLobbyResponse{
		PlayerID:     p.ID,
		LobbyPlayers: l.playerNames(),
		MaxPlayers:   l.MaxPlayers,
	}))
	l.broadcastExcept(conn, protocol.TagPlayerJoinEvent, protocol.PlayerJoinEvent{
		PlayerID:        p.ID,
		NewPlayerName:   p.Name,
		TotalNumPlayers: uint8(len(l.players)),
	})
	return p.ID
}

// Start deals a new session. Owner only, once, with at least two seats.
func (l *Lobby) Start(conn *Conn, playerID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	respond := func(code string) {
		conn.SendMessage(protocol.TagStartGameResponse, protocol.Err(code))
	}
	if playerID != l.OwnerID {
		respond(protocol.CodeNotLobbyOwner)
		return
	}
	if l.game != nil {
		respond(protocol.CodeGameInProgress)
		return
	}
	if len(l.players) < 2 {
		respond(protocol.CodeLessThanTwoPlayers)
		return
	}

	ids := make([]uuid.UUID, len(l.players))
	for i, p := range l.players {
		ids[i] = p.ID
	}
	g, err := game.New(ids, l.rng)
	if err != nil {
		l.log.WithError(err).Error("deal new game")
		conn.SendMessage(protocol.TagInternalServerError, nil)
		return
	}
	l.game = g
	l.initialOrder = ids
	l.log.WithField("players", len(ids)).Info("game started")

	conn.SendMessage(protocol.TagStartGameResponse, protocol.Ok(nil))
	l.broadcast(protocol.TagGameStartedEvent, l.gameStartedEvent())
	l.broadcast(protocol.TagPublicGameStateEvent, g.Public())
	for _, p := range l.players {
		l.sendHand(p)
	}
	l.armTurn()
}

// ChooseFaceup commits a player's face-up three during Setup.
func (l *Lobby) ChooseFaceup(conn *Conn, playerID uuid.UUID, c1, c2, c3 game.Card) {
	l.mu.Lock()
	defer l.mu.Unlock()

	respond := func(r protocol.Result) {
		conn.SendMessage(protocol.TagChooseFaceupResponse, r)
	}
	p, code := l.resolveActor(playerID)
	if code != "" {
		respond(protocol.Err(code))
		return
	}
	if err := l.game.ChooseFaceup(playerID, c1, c2, c3); err != nil {
		respond(protocol.Err(gameErrCode(err)))
		return
	}

	respond(protocol.Ok(nil))
	l.broadcast(protocol.TagPublicGameStateEvent, l.game.Public())
	l.sendHand(p)
	l.armTurn()
}

// MakePlay applies one play for the current player.
func (l *Lobby) MakePlay(conn *Conn, playerID uuid.UUID, cards []game.Card) {
	l.mu.Lock()
	defer l.mu.Unlock()

	respond := func(r protocol.Result) {
		conn.SendMessage(protocol.TagMakePlayResponse, r)
	}
	p, code := l.resolveActor(playerID)
	if code != "" {
		respond(protocol.Err(code))
		return
	}
	res, err := l.game.MakePlay(playerID, cards)
	if err != nil {
		respond(protocol.Err(gameErrCode(err)))
		return
	}

	respond(protocol.Ok(nil))
	l.finishPlay(p, res)
}

// finishPlay emits the post-mutation events shared by client plays and
// auto-plays, then re-arms or retires the deadline. Caller holds the lock.
func (l *Lobby) finishPlay(p *Player, res game.PlayResult) {
	l.broadcast(protocol.TagPublicGameStateEvent, l.game.Public())
	l.sendHand(p)
	if res.GameOver {
		l.broadcast(protocol.TagGameCompleteEvent, protocol.GameCompleteEvent{
			FinishOrder: l.game.FinishOrder(),
		})
		l.stopTimer()
		l.log.Info("game complete")
		return
	}
	l.armTurn()
}

// Reconnect rebinds a connection to an existing seat and replays the session
// snapshot. Returns the seat id, or Nil when the player is unknown.
func (l *Lobby) Reconnect(conn *Conn, playerID uuid.UUID) uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.find(playerID)
	if p == nil {
		conn.SendMessage(protocol.TagReconnectResponse, protocol.Err(protocol.CodePlayerNotFound))
		return uuid.Nil
	}

	if p.Conn != nil && p.Conn != conn {
		// Last write wins: the older connection gets torn down.
		p.Conn.Cancel()
	}
	p.Conn = conn
	if p.Control == HumanDisconnected {
		p.Control = HumanConnected
	}
	l.log.WithFields(logrus.Fields{"player_id": p.ID, "control": p.Control}).Info("player reconnected")

	conn.SendMessage(protocol.TagReconnectResponse, protocol.Ok(protocol.ReconnectResponse{
		MaxPlayers: l.MaxPlayers,
		InGame:     l.game != nil,
	}))
	if l.game != nil {
		conn.SendMessage(protocol.TagGameStartedEvent, l.gameStartedEvent())
		conn.SendMessage(protocol.TagPublicGameStateEvent, l.game.Public())
		l.sendHand(p)
	}
	return p.ID
}

// Detach drops a connection from its seat, on socket close or rebind to
// another lobby. The seat stays; its turn still times out into AI control.
func (l *Lobby) Detach(conn *Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.players {
		if p.Conn != conn {
			continue
		}
		p.Conn = nil
		p.DisconnectedAt = time.Now()
		if p.Control == HumanConnected {
			p.Control = HumanDisconnected
		}
		l.log.WithField("player_id", p.ID).Info("player disconnected")
		return
	}
}

// Summary snapshots the lobby for a listing.
func (l *Lobby) Summary() protocol.LobbySummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner := ""
	if p := l.find(l.OwnerID); p != nil {
		owner = p.Name
	}
	return protocol.LobbySummary{
		LobbyID:     l.ID,
		Name:        l.Name,
		CurPlayers:  uint8(len(l.players)),
		MaxPlayers:  l.MaxPlayers,
		Started:     l.game != nil,
		HasPassword: l.passwordHash != "",
		Owner:       owner,
		AgeSeconds:  uint64(time.Since(l.CreatedAt) / time.Second),
	}
}

// Abandoned reports whether every seat lost its human: no live connections,
// and each human seat disconnected for at least threshold. Fully
// AI-controlled lobbies count immediately.
func (l *Lobby) Abandoned(threshold time.Duration, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.players {
		if p.Conn != nil {
			return false
		}
		if p.Control != AIControlled && now.Sub(p.DisconnectedAt) < threshold {
			return false
		}
	}
	return true
}

// Close retires the deadline and tears down any remaining connections.
func (l *Lobby) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopTimer()
	for _, p := range l.players {
		if p.Conn != nil {
			p.Conn.Cancel()
			p.Conn = nil
		}
	}
}

// resolveActor maps a player id to a seat for a game operation. Caller holds
// the lock.
func (l *Lobby) resolveActor(playerID uuid.UUID) (*Player, string) {
	if l.game == nil {
		return nil, protocol.CodeGameNotStarted
	}
	p := l.find(playerID)
	if p == nil {
		return nil, protocol.CodePlayerNotFound
	}
	return p, ""
}

func (l *Lobby) find(playerID uuid.UUID) *Player {
	for _, p := range l.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (l *Lobby) playerNames() []string {
	names := make([]string, len(l.players))
	for i, p := range l.players {
		names[i] = p.Name
	}
	return names
}

func (l *Lobby) gameStartedEvent() protocol.GameStartedEvent {
	names := make(map[uuid.UUID]string, len(l.players))
	for _, p := range l.players {
		names[p.ID] = p.Name
	}
	return protocol.GameStartedEvent{
		Players:   names,
		TurnOrder: append([]uuid.UUID(nil), l.initialOrder...),
	}
}

// sendHand delivers the private zone snapshot to one seat, if connected.
func (l *Lobby) sendHand(p *Player) {
	if p.Conn == nil {
		return
	}
	view, ok := l.game.View(p.ID)
	if !ok {
		return
	}
	p.Conn.SendMessage(protocol.TagHandEvent, view)
}

func (l *Lobby) broadcast(tag string, payload any) {
	l.broadcastExcept(nil, tag, payload)
}

func (l *Lobby) broadcastExcept(skip *Conn, tag string, payload any) {
	frame, err := protocol.Encode(tag, payload)
	if err != nil {
		l.log.WithError(err).WithField("tag", tag).Error("encode broadcast")
		frame, _ = protocol.Encode(protocol.TagInternalServerError, nil)
	}
	for _, p := range l.players {
		if p.Conn == nil || p.Conn == skip {
			continue
		}
		p.Conn.Send(frame)
	}
}

// gameErrCode maps engine sentinels to wire codes.
func gameErrCode(err error) string {
	switch err {
	case game.ErrUnknownPlayer:
		return protocol.CodePlayerNotFound
	case game.ErrGameFinished:
		return protocol.CodeGameFinished
	case game.ErrWrongPhase:
		return protocol.CodeWrongPhase
	case game.ErrNotYourTurn:
		return protocol.CodeNotYourTurn
	case game.ErrCardNotOwned:
		return protocol.CodeCardNotOwned
	case game.ErrMixedRanks:
		return protocol.CodeMixedRanks
	case game.ErrIllegalAgainstPile:
		return protocol.CodeIllegalAgainstPile
	default:
		return protocol.CodeGameNotStarted
	}
}
