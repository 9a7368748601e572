// internal/lobby/timer.go
package lobby

import (
	"time"

	"github.com/palace-game/palace/internal/game"
	"github.com/palace-game/palace/internal/protocol"
)

// armTurn replaces the active deadline with one for the current seat.
// Caller holds the lock. Each arm bumps the generation, so a callback from a
// superseded deadline finds the mismatch and does nothing.
func (l *Lobby) armTurn() {
	l.stopTimer()
	if l.game == nil {
		return
	}
	cur, ok := l.game.CurrentPlayer()
	if !ok {
		return
	}

	delay := l.timing.TurnTimer + l.timing.Leeway
	if p := l.find(cur); p != nil && p.Control == AIControlled {
		delay = l.timing.AIMoveDelay
	}

	l.turnGen++
	gen := l.turnGen
	l.turnTimer = time.AfterFunc(delay, func() {
		l.deadline(gen)
	})
}

func (l *Lobby) stopTimer() {
	if l.turnTimer != nil {
		l.turnTimer.Stop()
		l.turnTimer = nil
	}
}

// Seams for the fallback policy, swappable in tests.
var (
	autoChooseFaceup = game.AutoChooseFaceup
	autoPlay         = game.AutoPlay
)

// deadline fires when the current seat ran out of time (or when an
// AI-controlled seat's paced move is due). The seat flips to AI control for
// good and the fallback policy takes exactly one action.
//
// It runs on a timer goroutine, so a panic here has no websocket handler
// above it to catch it; the recover keeps an engine fault degraded to an
// InternalServerError broadcast instead of tearing the process down.
func (l *Lobby) deadline(gen int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("panic in turn deadline: %v", r)
			l.broadcast(protocol.TagInternalServerError, nil)
		}
	}()

	if gen != l.turnGen || l.game == nil {
		return
	}
	cur, ok := l.game.CurrentPlayer()
	if !ok {
		return
	}
	p := l.find(cur)
	if p == nil {
		return
	}
	if p.Control != AIControlled {
		p.Control = AIControlled
		l.log.WithField("player_id", p.ID).Info("turn timed out, seat now AI controlled")
	}

	view, ok := l.game.View(cur)
	if !ok {
		return
	}

	switch l.game.Phase() {
	case game.PhaseSetup:
		c1, c2, c3 := autoChooseFaceup(view)
		if err := l.game.ChooseFaceup(cur, c1, c2, c3); err != nil {
			l.log.WithError(err).Error("auto faceup choice rejected")
			l.armTurn()
			return
		}
		l.broadcast(protocol.TagPublicGameStateEvent, l.game.Public())
		l.sendHand(p)
		l.armTurn()

	case game.PhasePlay:
		cards := autoPlay(view, l.game.Pile())
		res, err := l.game.MakePlay(cur, cards)
		if err != nil {
			l.log.WithError(err).Error("auto play rejected")
			l.armTurn()
			return
		}
		l.finishPlay(p, res)
	}
}
