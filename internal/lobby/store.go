// internal/lobby/store.go
package lobby

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palace-game/palace/internal/protocol"
)

// Store is the in-memory lobby registry. Its mutex covers only creation,
// lookup, listing, and pruning; per-lobby state has its own lock.
type Store struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]*Lobby

	timing Timing
	log    *logrus.Logger
}

func NewStore(timing Timing, log *logrus.Logger) *Store {
	return &Store{
		lobbies: make(map[uuid.UUID]*Lobby),
		timing:  timing,
		log:     log,
	}
}

// Create validates a NewLobby request and registers the lobby with its owner
// seated on conn. A non-empty code means rejection; a nil lobby with an
// empty code is an internal fault (already logged).
func (s *Store) Create(conn *Conn, msg protocol.NewLobbyMessage) (*Lobby, *Player, string) {
	if msg.MaxPlayers < 2 {
		return nil, nil, protocol.CodeLessThanTwoMaxPlayers
	}
	if msg.LobbyName == "" {
		return nil, nil, protocol.CodeEmptyLobbyName
	}
	if msg.PlayerName == "" {
		return nil, nil, protocol.CodeEmptyPlayerName
	}

	l, owner, err := New(msg.LobbyName, msg.PlayerName, msg.Password, msg.MaxPlayers, s.timing, conn, s.log)
	if err != nil {
		s.log.WithError(err).Error("create lobby")
		return nil, nil, ""
	}

	s.mu.Lock()
	s.lobbies[l.ID] = l
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"lobby_id": l.ID, "lobby": l.Name}).Info("lobby created")
	return l, owner, ""
}

// Get looks a lobby up by id.
func (s *Store) Get(id uuid.UUID) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	return l, ok
}

// List snapshots every registered lobby.
func (s *Store) List() []protocol.LobbySummary {
	s.mu.Lock()
	all := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		all = append(all, l)
	}
	s.mu.Unlock()

	// Summaries take each lobby's lock, so build them outside the registry
	// lock.
	out := make([]protocol.LobbySummary, 0, len(all))
	for _, l := range all {
		out = append(out, l.Summary())
	}
	return out
}

// Prune sweeps abandoned lobbies every interval until ctx is done.
func (s *Store) Prune(ctx context.Context, interval, threshold time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.pruneOnce(threshold, now)
		}
	}
}

func (s *Store) pruneOnce(threshold time.Duration, now time.Time) {
	s.mu.Lock()
	candidates := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		candidates = append(candidates, l)
	}
	s.mu.Unlock()

	for _, l := range candidates {
		if !l.Abandoned(threshold, now) {
			continue
		}
		l.Close()
		s.mu.Lock()
		delete(s.lobbies, l.ID)
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{"lobby_id": l.ID, "lobby": l.Name}).Info("pruned abandoned lobby")
	}
}
