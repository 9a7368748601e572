// internal/lobby/player.go
package lobby

import (
	"time"

	"github.com/google/uuid"
)

// Control says who is driving a seat. A seat is never freed once taken; only
// its control changes.
type Control int

const (
	// HumanConnected: a live connection drives the seat.
	HumanConnected Control = iota
	// HumanDisconnected: the connection dropped; the seat still belongs to
	// the human and times out like any other.
	HumanDisconnected
	// AIControlled: the seat timed out and the fallback policy drives it
	// for the rest of the game, even if the human returns.
	AIControlled
)

func (c Control) String() string {
	switch c {
	case HumanConnected:
		return "HumanConnected"
	case HumanDisconnected:
		return "HumanDisconnected"
	case AIControlled:
		return "AIControlled"
	default:
		return "Control(?)"
	}
}

// Player is one seat in a lobby.
type Player struct {
	ID      uuid.UUID
	Name    string
	Control Control

	// Conn is nil while the player is disconnected.
	Conn *Conn
	// DisconnectedAt is meaningful only while Conn is nil.
	DisconnectedAt time.Time
}
