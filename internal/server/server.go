// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palace-game/palace/internal/config"
	"github.com/palace-game/palace/internal/lobby"
	"github.com/palace-game/palace/internal/protocol"
)

const writeTimeout = 5 * time.Second

// Server owns the websocket endpoint and routes decoded messages to the
// lobby registry.
type Server struct {
	store *lobby.Store
	cfg   config.Config
	log   *logrus.Logger
}

func New(store *lobby.Store, cfg config.Config, log *logrus.Logger) *Server {
	return &Server{store: store, cfg: cfg, log: log}
}

// Handler returns the HTTP handler exposing the websocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.OriginPatterns,
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn := lobby.NewConn(cancel, logrus.NewEntry(s.log))
	go s.writePump(ctx, c, conn)
	s.readPump(ctx, c, conn)
}

// session tracks one connection's lobby binding. NewLobby, JoinLobby, and
// Reconnect rebind it last-write-wins; the old lobby's subscriber entry is
// detached on every successful rebind.
type session struct {
	conn    *lobby.Conn
	current *lobby.Lobby
}

func (sess *session) rebind(l *lobby.Lobby) {
	if sess.current != nil && sess.current != l {
		sess.current.Detach(sess.conn)
	}
	sess.current = l
}

// readPump consumes inbound frames until the peer goes away or violates the
// protocol. Frames must be binary; a text frame or an undecodable message
// tears the connection down.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, conn *lobby.Conn) {
	sess := &session{conn: conn}
	defer func() {
		if sess.current != nil {
			sess.current.Detach(conn)
		}
	}()

	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.log.WithError(err).Debug("websocket read ended")
			}
			return
		}
		if typ != websocket.MessageBinary {
			c.Close(websocket.StatusUnsupportedData, "binary frames only")
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			s.log.WithError(err).Warn("undecodable frame")
			c.Close(websocket.StatusPolicyViolation, "malformed message")
			return
		}
		s.dispatch(sess, msg)
	}
}

// dispatch applies one decoded message. A panic anywhere below becomes the
// bare InternalServerError tag instead of a response, and the connection
// lives on.
func (s *Server) dispatch(sess *session, msg protocol.ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("tag", msg.Tag).Errorf("panic handling message: %v", r)
			sess.conn.SendMessage(protocol.TagInternalServerError, nil)
		}
	}()

	conn := sess.conn
	switch msg.Tag {
	case protocol.TagListLobbies:
		conn.SendMessage(protocol.TagListLobbiesResponse, s.store.List())

	case protocol.TagNewLobby:
		l, owner, code := s.store.Create(conn, *msg.NewLobby)
		if code != "" {
			conn.SendMessage(protocol.TagNewLobbyResponse, protocol.Err(code))
			return
		}
		if l == nil {
			conn.SendMessage(protocol.TagInternalServerError, nil)
			return
		}
		sess.rebind(l)
		conn.SendMessage(protocol.TagNewLobbyResponse, protocol.Ok(protocol.NewLobbyResponse{
			PlayerID:   owner.ID,
			LobbyID:    l.ID,
			MaxPlayers: l.MaxPlayers,
		}))

	case protocol.TagJoinLobby:
		l, ok := s.store.Get(msg.JoinLobby.LobbyID)
		if !ok {
			conn.SendMessage(protocol.TagJoinLobbyResponse, protocol.Err(protocol.CodeLobbyNotFound))
			return
		}
		if id := l.Join(conn, msg.JoinLobby.PlayerName, msg.JoinLobby.Password); id != uuid.Nil {
			sess.rebind(l)
		}

	case protocol.TagStartGame:
		l, ok := s.store.Get(msg.StartGame.LobbyID)
		if !ok {
			conn.SendMessage(protocol.TagStartGameResponse, protocol.Err(protocol.CodeLobbyNotFound))
			return
		}
		l.Start(conn, msg.StartGame.PlayerID)

	case protocol.TagChooseFaceup:
		m := msg.ChooseFaceup
		l, ok := s.store.Get(m.LobbyID)
		if !ok {
			conn.SendMessage(protocol.TagChooseFaceupResponse, protocol.Err(protocol.CodeLobbyNotFound))
			return
		}
		l.ChooseFaceup(conn, m.PlayerID, m.CardOne, m.CardTwo, m.CardThree)

	case protocol.TagMakePlay:
		m := msg.MakePlay
		l, ok := s.store.Get(m.LobbyID)
		if !ok {
			conn.SendMessage(protocol.TagMakePlayResponse, protocol.Err(protocol.CodeLobbyNotFound))
			return
		}
		l.MakePlay(conn, m.PlayerID, m.Cards)

	case protocol.TagReconnect:
		l, ok := s.store.Get(msg.Reconnect.LobbyID)
		if !ok {
			conn.SendMessage(protocol.TagReconnectResponse, protocol.Err(protocol.CodeLobbyNotFound))
			return
		}
		if id := l.Reconnect(conn, msg.Reconnect.PlayerID); id != uuid.Nil {
			sess.rebind(l)
		}
	}
}

// writePump drains the connection's outbound queue onto the socket.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, conn *lobby.Conn) {
	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusGoingAway, "server closing")
			return
		case frame := <-conn.OutChan:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageBinary, frame)
			cancel()
			if err != nil {
				s.log.WithError(err).Debug("websocket write failed")
				conn.Cancel()
				return
			}
		}
	}
}
