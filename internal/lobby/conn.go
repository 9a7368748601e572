// internal/lobby/conn.go
package lobby

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palace-game/palace/internal/protocol"
)

// outBuffer bounds the per-connection outbound queue. A full queue means the
// peer stopped draining; frames are dropped rather than stalling the lobby.
const outBuffer = 64

// Conn is one live websocket connection's outbound seam. The server's write
// pump drains OutChan; lobby code only ever pushes to it.
type Conn struct {
	ID      uuid.UUID
	OutChan chan []byte
	Cancel  context.CancelFunc

	log *logrus.Entry
}

// NewConn allocates the outbound seam for a freshly accepted connection.
func NewConn(cancel context.CancelFunc, log *logrus.Entry) *Conn {
	id := uuid.New()
	return &Conn{
		ID:      id,
		OutChan: make(chan []byte, outBuffer),
		Cancel:  cancel,
		log:     log.WithField("conn_id", id),
	}
}

// Send pushes a raw frame non-blockingly, dropping it if the peer is stalled.
func (c *Conn) Send(frame []byte) {
	select {
	case c.OutChan <- frame:
	default:
		c.log.Warn("outbound queue full, dropping frame")
	}
}

// SendMessage encodes and sends one tagged message. An encode failure is an
// internal fault: the peer gets the bare InternalServerError tag instead.
func (c *Conn) SendMessage(tag string, payload any) {
	frame, err := protocol.Encode(tag, payload)
	if err != nil {
		c.log.WithError(err).WithField("tag", tag).Error("encode outbound message")
		frame, _ = protocol.Encode(protocol.TagInternalServerError, nil)
	}
	c.Send(frame)
}
