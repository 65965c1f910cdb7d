// Package gorillaws implements transport.Connection on top of
// gorilla/websocket.
package gorillaws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/agorahq/agora/internal/codec"
	"github.com/agorahq/agora/internal/rand"
	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/transport"
)

const (
	// DefaultTimeout bounds the wait for a join/leave response.
	DefaultTimeout = 30 * time.Second

	requestIDLength = 16

	closeMessageCode = 1000

	// pushQueueSize bounds the buffer between the read loop and handler
	// dispatch. Pushes past a full buffer are dropped; delivery is best
	// effort end to end.
	pushQueueSize = 256
)

// DefaultDialer is the gorilla dialer used unless Config.Dialer overrides it.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
}

// Config carries the knobs for a Connection. Zero values get sane defaults.
type Config struct {
	// BaseURL is the ws:// or wss:// URL of the server's /ws endpoint.
	BaseURL string

	// Timeout bounds each request/response round trip. Zero means
	// DefaultTimeout; negative disables the per-request timeout so the
	// caller's context is the only bound.
	Timeout time.Duration

	Marshaler   codec.Marshaler
	Unmarshaler codec.Unmarshaler

	Dialer *gorilla.Dialer
	Logger logger.Logger
}

type handlerReg struct {
	seq uint64
	fn  transport.Handler
}

// Connection is a single websocket session. It is safe for concurrent use.
// Once closed it stays closed; callers wanting a fresh session create a new
// Connection.
type Connection struct {
	baseURL     string
	timeout     time.Duration
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	dialer      *gorilla.Dialer
	logger      logger.Logger

	conn *gorilla.Conn
	// connLock guards conn for writes. It is held only around individual
	// read/write operations, never across the whole connect sequence, so
	// Send-style calls cannot block indefinitely behind a dial.
	connLock sync.Mutex

	// stateMu guards connected/closed/closeErr.
	stateMu   sync.Mutex
	connected bool
	closed    bool
	closeCh   chan struct{}
	closeErr  error

	// pushCh decouples handler dispatch from the read loop. Handlers may
	// block on their own locks without stalling response delivery, and a
	// single dispatcher goroutine keeps per-session push order intact.
	pushCh chan transport.Push

	respMu    sync.Mutex
	respChans map[string]chan transport.Response

	// handlerMu is held for reading while handlers run, so an Off call
	// (write lock) does not return until in-flight delivery has drained.
	// Handlers must not register or remove handlers from inside
	// themselves.
	handlerMu  sync.RWMutex
	handlerSeq uint64
	handlers   map[string][]handlerReg
}

var _ transport.Connection = (*Connection)(nil)

// New builds an unconnected Connection from cfg.
func New(cfg Config) *Connection {
	timeout := cfg.Timeout
	switch {
	case timeout == 0:
		timeout = DefaultTimeout
	case timeout < 0:
		timeout = 0
	}

	marshaler := cfg.Marshaler
	if marshaler == nil {
		marshaler = codec.JSON{}
	}
	unmarshaler := cfg.Unmarshaler
	if unmarshaler == nil {
		unmarshaler = codec.JSON{}
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = DefaultDialer
	}

	return &Connection{
		baseURL:     cfg.BaseURL,
		timeout:     timeout,
		marshaler:   marshaler,
		unmarshaler: unmarshaler,
		dialer:      dialer,
		logger:      logger.OrNop(cfg.Logger),
		closeCh:     make(chan struct{}),
		pushCh:      make(chan transport.Push, pushQueueSize),
		respChans:   make(map[string]chan transport.Response),
		handlers:    make(map[string][]handlerReg),
	}
}

// Connect dials the server and starts the read loop. Calling Connect on an
// already-connected instance is a no-op, so two views racing to open the
// shared session cannot end up with two sockets.
func (c *Connection) Connect(ctx context.Context) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.closed {
		return transport.ErrClosed
	}
	if c.connected {
		return nil
	}
	if c.baseURL == "" {
		return transport.ErrNoBaseURL
	}

	conn, res, err := c.dialer.DialContext(ctx, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("gorillaws: dial %s: %w", c.baseURL, err)
	}
	defer res.Body.Close()

	c.connLock.Lock()
	c.conn = conn
	c.connLock.Unlock()

	c.connected = true

	go c.readLoop(c.closeCh)
	go c.dispatchLoop(c.closeCh)

	return nil
}

// Done is closed when the session ends.
func (c *Connection) Done() <-chan struct{} {
	return c.closeCh
}

// IsClosed reports whether the session is gone for good.
func (c *Connection) IsClosed() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.closed
}

// Close tears the session down. It is idempotent; after the first call every
// Join/Leave returns ErrClosed and no handler fires again. The context bounds
// the close-message write to the server; the local teardown happens
// regardless.
func (c *Connection) Close(ctx context.Context) error {
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	close(c.closeCh)
	c.stateMu.Unlock()

	c.connLock.Lock()
	conn := c.conn
	c.conn = nil
	c.connLock.Unlock()

	if conn == nil {
		return nil
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			c.logger.Error("failed to set close write deadline", "error", err)
		}
	}
	if err := conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(closeMessageCode, "")); err != nil {
		// Best effort only; the server notices the TCP close anyway.
		c.logger.Error("failed to write close message", "error", err)
	}

	return conn.Close()
}

// Join subscribes this session to a room.
func (c *Connection) Join(ctx context.Context, room string) error {
	return c.request(ctx, transport.MethodJoin, room)
}

// Leave unsubscribes this session from a room.
func (c *Connection) Leave(ctx context.Context, room string) error {
	return c.request(ctx, transport.MethodLeave, room)
}

// On registers h for pushes of the named event. The returned func removes
// the registration; it is idempotent and safe to call concurrently with
// delivery.
func (c *Connection) On(event string, h transport.Handler) func() {
	c.handlerMu.Lock()
	c.handlerSeq++
	seq := c.handlerSeq
	c.handlers[event] = append(c.handlers[event], handlerReg{seq: seq, fn: h})
	c.handlerMu.Unlock()

	return func() {
		c.handlerMu.Lock()
		defer c.handlerMu.Unlock()
		regs := c.handlers[event]
		for i, reg := range regs {
			if reg.seq == seq {
				c.handlers[event] = append(regs[:i:i], regs[i+1:]...)
				break
			}
		}
		if len(c.handlers[event]) == 0 {
			delete(c.handlers, event)
		}
	}
}

func (c *Connection) request(ctx context.Context, method, room string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.stateMu.Lock()
	closed, closeCh, closeErr := c.closed, c.closeCh, c.closeErr
	connected := c.connected
	c.stateMu.Unlock()

	if closed {
		if closeErr != nil {
			return closeErr
		}
		return transport.ErrClosed
	}
	if !connected {
		return fmt.Errorf("gorillaws: %s %q before Connect: %w", method, room, transport.ErrClosed)
	}

	id := rand.NewRequestID(requestIDLength)

	respCh, err := c.createResponseChannel(id)
	if err != nil {
		return err
	}
	defer c.removeResponseChannel(id)

	if err := c.write(&transport.Request{ID: id, Method: method, Params: []string{room}}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return transport.ErrTimeout
		}
		return ctx.Err()
	case <-closeCh:
		return transport.ErrClosed
	case res, open := <-respCh:
		if !open {
			return transport.ErrClosed
		}
		if res.Error != nil {
			return res.Error
		}
		return nil
	}
}

func (c *Connection) write(v any) error {
	data, err := c.marshaler.Marshal(v)
	if err != nil {
		return err
	}

	c.connLock.Lock()
	defer c.connLock.Unlock()

	if c.conn == nil {
		return transport.ErrClosed
	}

	err = c.conn.WriteMessage(gorilla.TextMessage, data)
	if errors.Is(err, gorilla.ErrCloseSent) {
		c.closeWithError(err)
	}
	return err
}

func (c *Connection) createResponseChannel(id string) (chan transport.Response, error) {
	c.respMu.Lock()
	defer c.respMu.Unlock()

	if _, ok := c.respChans[id]; ok {
		return nil, fmt.Errorf("%w: %v", transport.ErrIDInUse, id)
	}

	ch := make(chan transport.Response, 1)
	c.respChans[id] = ch
	return ch, nil
}

func (c *Connection) removeResponseChannel(id string) {
	c.respMu.Lock()
	defer c.respMu.Unlock()
	delete(c.respChans, id)
}

func (c *Connection) getResponseChannel(id string) (chan transport.Response, bool) {
	c.respMu.Lock()
	defer c.respMu.Unlock()
	ch, ok := c.respChans[id]
	return ch, ok
}

func (c *Connection) closeWithError(err error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.connected = false
	c.closeErr = err
	close(c.closeCh)
}

func (c *Connection) readLoop(closeCh chan struct{}) {
	for {
		select {
		case <-closeCh:
			return
		default:
		}

		c.connLock.Lock()
		conn := c.conn
		c.connLock.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			// A websocket is unusable after any read error; end the
			// session. Clean closes are expected, anything else is
			// worth a log line.
			if c.unexpectedReadError(err) {
				c.logger.Error("websocket read error", "error", err)
			}
			c.closeWithError(err)
			return
		}

		c.handleFrame(data)
	}
}

func (c *Connection) unexpectedReadError(err error) bool {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return false
	}
	if gorilla.IsCloseError(err, closeMessageCode, gorilla.CloseGoingAway) {
		return false
	}
	return true
}

// handleFrame dispatches one incoming frame: responses resolve the matching
// pending request, pushes fan out to handlers in registration order. A frame
// that is neither is logged and dropped rather than killing the session.
func (c *Connection) handleFrame(data []byte) {
	switch transport.SniffFrame(data) {
	case transport.KindResponse:
		var res transport.Response
		if err := c.unmarshaler.Unmarshal(data, &res); err != nil {
			c.logger.Error("failed to unmarshal response frame", "error", err)
			return
		}
		ch, ok := c.getResponseChannel(res.ID)
		if !ok {
			c.logger.Error("response for unknown request id", "id", res.ID)
			return
		}
		ch <- res

	case transport.KindPush:
		var push transport.Push
		if err := c.unmarshaler.Unmarshal(data, &push); err != nil {
			c.logger.Error("failed to unmarshal push frame", "error", err)
			return
		}
		select {
		case c.pushCh <- push:
		default:
			c.logger.Warn("push queue full, dropping event", "event", push.Event, "room", push.Room)
		}

	default:
		c.logger.Error("dropping unrecognized frame")
	}
}

func (c *Connection) dispatchLoop(closeCh chan struct{}) {
	for {
		select {
		case <-closeCh:
			return
		case push := <-c.pushCh:
			c.dispatch(push)
		}
	}
}

func (c *Connection) dispatch(push transport.Push) {
	c.handlerMu.RLock()
	defer c.handlerMu.RUnlock()

	for _, reg := range c.handlers[push.Event] {
		reg.fn(push)
	}
}
