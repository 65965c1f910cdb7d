// Package transport defines the event channel contract between one agora
// server and its clients: a request/response pair for room membership, plus
// server-to-client pushes carrying change events.
package transport

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by operations attempted after Close.
	ErrClosed = errors.New("transport: connection closed")

	// ErrTimeout is returned when a request receives no response in time.
	ErrTimeout = errors.New("transport: request timed out")

	// ErrIDInUse indicates a duplicate in-flight request id.
	ErrIDInUse = errors.New("transport: request id already in use")

	// ErrNoBaseURL indicates a connection was built without a server URL.
	ErrNoBaseURL = errors.New("transport: no base URL configured")
)

// Handler consumes one pushed change event.
type Handler func(Push)

// Connection is the client side of the event channel.
//
// Connect is idempotent: calling it on an already-connected instance is a
// no-op and must not open a second session. Close is likewise idempotent;
// after Close every Join/Leave returns ErrClosed and no handler fires again.
// Handlers registered for the same event name run in registration order.
// Delivery is at-most-once; a reconnected client does not see replayed
// events.
type Connection interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	Join(ctx context.Context, room string) error
	Leave(ctx context.Context, room string) error

	// On registers a handler and returns its removal func. The removal
	// func is idempotent, and once it returns the handler is guaranteed
	// not to be invoked again.
	On(event string, h Handler) (off func())

	// Done is closed when the session ends, cleanly or not. Consumers
	// use it to notice a dead connection and degrade.
	Done() <-chan struct{}
}
