package hub

import (
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/agorahq/agora/internal/codec"
	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/metrics"
	"github.com/agorahq/agora/pkg/transport"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 1 << 16

	// sendQueueSize bounds the per-session outbound queue. A session that
	// falls this far behind starts losing events; delivery is best-effort.
	sendQueueSize = 64
)

// session is one connected client. The read pump handles join/leave
// requests; the write pump drains the outbound queue so broadcasts never
// block on a slow socket.
type session struct {
	id   string
	conn *gorilla.Conn
	hub  *Hub
	send chan []byte
	done chan struct{}

	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger
}

var _ Member = (*session)(nil)

func newSession(id string, conn *gorilla.Conn, h *Hub, log logger.Logger) *session {
	return &session{
		id:          id,
		conn:        conn,
		hub:         h,
		send:        make(chan []byte, sendQueueSize),
		done:        make(chan struct{}),
		marshaler:   codec.JSON{},
		unmarshaler: codec.JSON{},
		logger:      logger.OrNop(log),
	}
}

func (s *session) ID() string { return s.id }

// Queue enqueues one encoded frame for delivery. Never blocks; returns false
// when the queue is full or the session is gone.
func (s *session) Queue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *session) run() {
	metrics.ConnectionsActive.Inc()
	go s.writePump()
	s.readPump()
}

// readPump consumes client frames until the connection dies, then strips the
// session out of every room it joined.
func (s *session) readPump() {
	defer func() {
		s.hub.Drop(s)
		close(s.done)
		s.conn.Close()
		metrics.ConnectionsActive.Dec()
	}()

	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				s.logger.Debug("session read error", "session", s.id, "error", err)
			}
			return
		}
		s.handleRequest(data)
	}
}

func (s *session) handleRequest(data []byte) {
	var req transport.Request
	if err := s.unmarshaler.Unmarshal(data, &req); err != nil {
		s.logger.Warn("dropping malformed request frame", "session", s.id, "error", err)
		return
	}

	var wireErr *transport.WireError

	switch {
	case req.Method == transport.MethodJoin && len(req.Params) == 1:
		s.hub.Join(s, req.Params[0])
	case req.Method == transport.MethodLeave && len(req.Params) == 1:
		s.hub.Leave(s, req.Params[0])
	default:
		wireErr = &transport.WireError{Code: 400, Message: "unknown method or bad params"}
	}

	if req.ID == "" {
		return
	}

	res, err := s.marshaler.Marshal(transport.Response{ID: req.ID, Error: wireErr})
	if err != nil {
		s.logger.Error("failed to encode response frame", "session", s.id, "error", err)
		return
	}
	if !s.Queue(res) {
		s.logger.Warn("dropping response for slow session", "session", s.id)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(gorilla.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
