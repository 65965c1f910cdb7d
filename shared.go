package agora

import (
	"context"
	"sync"

	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/transport"
)

// DialFunc builds and connects a fresh transport session.
type DialFunc func(ctx context.Context) (transport.Connection, error)

// SharedConn hands one websocket session to any number of concurrent
// subscriptions. The first Acquire dials, later ones reuse; the session is
// closed when the last holder releases. If the session dies underneath the
// holders, the next Acquire dials a replacement.
type SharedConn struct {
	dial   DialFunc
	logger logger.Logger

	mu   sync.Mutex
	conn transport.Connection
	refs int
}

// NewSharedConn builds an idle SharedConn around dial.
func NewSharedConn(dial DialFunc, log logger.Logger) *SharedConn {
	return &SharedConn{
		dial:   dial,
		logger: logger.OrNop(log),
	}
}

// Acquire returns the shared session, dialing if none is live. The mutex is
// held across the dial so concurrent first acquires share one socket instead
// of racing to open several.
func (s *SharedConn) Acquire(ctx context.Context) (transport.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		select {
		case <-s.conn.Done():
			// Session died under the remaining holders. Their Release
			// calls keep decrementing the same counter against the
			// replacement, which is fine: holders of a dead session
			// are on their way to Retry or Teardown anyway.
			s.logger.Warn("shared connection dead, redialing")
			s.conn = nil
		default:
			s.refs++
			return s.conn, nil
		}
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	s.refs++
	s.logger.Debug("shared connection established")
	return conn, nil
}

// Release returns one holder's ref. When the count reaches zero the session
// is closed; the next Acquire starts a fresh one.
func (s *SharedConn) Release(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		return nil
	}
	s.refs--
	if s.refs > 0 || s.conn == nil {
		return nil
	}

	conn := s.conn
	s.conn = nil
	s.logger.Debug("last holder released, closing shared connection")
	return conn.Close(ctx)
}

// Refs reports the current holder count.
func (s *SharedConn) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}
