package agora

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/agorahq/agora/pkg/event"
	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/models"
	"github.com/agorahq/agora/pkg/transport"
)

// ErrTornDown is returned by operations on a subscription that already
// reached its terminal state.
var ErrTornDown = errors.New("agora: subscription torn down")

// FetchFunc loads the initial resource collection, usually over HTTP.
type FetchFunc[T Item] func(ctx context.Context) ([]T, error)

// Subscription binds one view's collection to one room for the lifetime of
// that view. Start when the view mounts, Teardown when it unmounts. A new
// mount gets a new Subscription; a torn-down one is never reused.
type Subscription[T Item] struct {
	room   string
	names  event.Names
	fetch  FetchFunc[T]
	logger logger.Logger

	acquire func(ctx context.Context) (transport.Connection, error)
	release func(ctx context.Context) error

	// mu guards state and the fields below; handlers consult the state
	// before touching the collection so nothing merges after teardown.
	mu    sync.Mutex
	state SubscriptionState

	conn     transport.Connection
	coll     *Collection[T]
	offs     []func()
	joined   bool
	acquired bool

	// quit stops the connection watcher for the current wiring. A new
	// channel is made on every successful load.
	quit chan struct{}
}

// SubscriptionConfig wires a Subscription's collaborators.
type SubscriptionConfig[T Item] struct {
	// Room is the broadcast scope to join once the fetch lands.
	Room string
	// Events names the created/updated/deleted trio to listen for.
	Events event.Names
	// Order controls where created items merge.
	Order Order
	// Fetch loads the initial collection.
	Fetch FetchFunc[T]

	// Acquire hands out the shared transport connection; Release returns
	// it. Typically SharedConn.Acquire / SharedConn.Release.
	Acquire func(ctx context.Context) (transport.Connection, error)
	Release func(ctx context.Context) error

	Logger logger.Logger
}

// NewSubscription builds an Idle subscription.
func NewSubscription[T Item](cfg SubscriptionConfig[T]) *Subscription[T] {
	s := &Subscription[T]{
		room:    cfg.Room,
		names:   cfg.Events,
		fetch:   cfg.Fetch,
		acquire: cfg.Acquire,
		release: cfg.Release,
		logger:  logger.OrNop(cfg.Logger),
		coll:    NewCollection[T](cfg.Order),
	}
	return s
}

// State returns the current lifecycle state.
func (s *Subscription[T]) State() SubscriptionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Collection returns the live collection, or nil after teardown.
func (s *Subscription[T]) Collection() *Collection[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll
}

func (s *Subscription[T]) transitionTo(next SubscriptionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(next)
}

func (s *Subscription[T]) transitionLocked(next SubscriptionState) error {
	if err := s.state.validateTransitionTo(next); err != nil {
		return err
	}
	s.state = next
	s.logger.Debug("subscription state transitioned", "room", s.room, "new_state", next)
	return nil
}

// Start runs the mount sequence: fetch the base collection, then acquire the
// shared connection, join the room and begin reconciling. The room is never
// joined before the base data exists. A Teardown racing with the fetch wins:
// the late fetch result is discarded and no join happens.
func (s *Subscription[T]) Start(ctx context.Context) error {
	if err := s.transitionTo(StateLoading); err != nil {
		return err
	}
	return s.load(ctx)
}

// Retry re-runs the fetch/join sequence from Degraded. Any wiring left over
// from a previous Active phase is released first, so handlers never stack.
func (s *Subscription[T]) Retry(ctx context.Context) error {
	if err := s.transitionTo(StateLoading); err != nil {
		return err
	}
	s.unwire(ctx)
	return s.load(ctx)
}

func (s *Subscription[T]) load(ctx context.Context) error {
	items, fetchErr := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Unmounted while the fetch was in flight: discard the result, no
	// join, no side effects.
	if s.state == StateTornDown {
		return ErrTornDown
	}

	if fetchErr != nil {
		if err := s.transitionLocked(StateDegraded); err != nil {
			s.logger.Error("BUG: subscription failed to degrade", "error", err)
		}
		return fmt.Errorf("agora: initial fetch for %s: %w", s.room, fetchErr)
	}

	s.coll.Reset(items)

	conn, err := s.acquire(ctx)
	if err != nil {
		if stateErr := s.transitionLocked(StateDegraded); stateErr != nil {
			s.logger.Error("BUG: subscription failed to degrade", "error", stateErr)
		}
		return fmt.Errorf("agora: acquire connection for %s: %w", s.room, err)
	}
	s.conn = conn
	s.acquired = true

	if err := conn.Join(ctx, s.room); err != nil {
		if stateErr := s.transitionLocked(StateDegraded); stateErr != nil {
			s.logger.Error("BUG: subscription failed to degrade", "error", stateErr)
		}
		return fmt.Errorf("agora: join %s: %w", s.room, err)
	}
	s.joined = true

	s.offs = []func(){
		conn.On(s.names.Created, s.onCreated),
		conn.On(s.names.Updated, s.onUpdated),
		conn.On(s.names.Deleted, s.onDeleted),
	}

	if err := s.transitionLocked(StateActive); err != nil {
		s.logger.Error("BUG: subscription failed to activate", "error", err)
		return err
	}

	s.quit = make(chan struct{})
	go s.watchConn(conn.Done(), s.quit)

	return nil
}

// watchConn degrades the subscription if the underlying session dies while
// Active. The collection keeps its last known contents for the caller to
// render until Retry.
func (s *Subscription[T]) watchConn(done <-chan struct{}, quit <-chan struct{}) {
	select {
	case <-quit:
		return
	case <-done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	if err := s.transitionLocked(StateDegraded); err != nil {
		s.logger.Error("BUG: subscription failed to degrade", "error", err)
		return
	}
	s.logger.Warn("connection lost, subscription degraded", "room", s.room)
}

// unwire releases everything load set up: handler registrations, room
// membership and the shared connection ref. Safe to call with nothing wired.
func (s *Subscription[T]) unwire(ctx context.Context) {
	s.mu.Lock()
	offs := s.offs
	conn := s.conn
	joined := s.joined
	acquired := s.acquired
	quit := s.quit
	s.offs = nil
	s.conn = nil
	s.joined = false
	s.acquired = false
	s.quit = nil
	s.mu.Unlock()

	if quit != nil {
		close(quit)
	}

	// Off() blocks until in-flight delivery to the handler has drained,
	// so from here on no push can touch the collection.
	for _, off := range offs {
		off()
	}

	if joined {
		if err := conn.Leave(ctx, s.room); err != nil && !errors.Is(err, transport.ErrClosed) {
			s.logger.Warn("failed to leave room", "room", s.room, "error", err)
		}
	}

	if acquired {
		if err := s.release(ctx); err != nil {
			s.logger.Warn("failed to release shared connection", "room", s.room, "error", err)
		}
	}
}

// Teardown is the unmount path and the only way membership and handlers are
// released. It is idempotent and terminal. Handler removal completes before
// the room is left, and both complete before the shared connection is
// released, so no event can reach this subscription afterwards.
func (s *Subscription[T]) Teardown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateTornDown {
		s.mu.Unlock()
		return nil
	}
	if err := s.transitionLocked(StateTornDown); err != nil {
		s.mu.Unlock()
		return err
	}

	s.coll = nil
	s.mu.Unlock()

	s.unwire(ctx)
	return nil
}

// handlerCollection returns the collection only while the subscription is
// Active and scoped to the push's room. Anything else is dropped: events for
// other rooms, events during teardown, events while degraded.
func (s *Subscription[T]) handlerCollection(room string) *Collection[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive || room != s.room {
		return nil
	}
	return s.coll
}

func (s *Subscription[T]) onCreated(push transport.Push) {
	coll := s.handlerCollection(push.Room)
	if coll == nil {
		return
	}

	var item T
	if err := json.Unmarshal(push.Payload, &item); err != nil {
		s.logger.Warn("ignoring malformed created event", "event", push.Event, "error", err)
		return
	}
	coll.ApplyCreated(item)
}

func (s *Subscription[T]) onUpdated(push transport.Push) {
	coll := s.handlerCollection(push.Room)
	if coll == nil {
		return
	}

	var item T
	if err := json.Unmarshal(push.Payload, &item); err != nil {
		s.logger.Warn("ignoring malformed updated event", "event", push.Event, "error", err)
		return
	}
	coll.ApplyUpdated(item)
}

func (s *Subscription[T]) onDeleted(push transport.Push) {
	coll := s.handlerCollection(push.Room)
	if coll == nil {
		return
	}

	var tomb models.Tombstone
	if err := json.Unmarshal(push.Payload, &tomb); err != nil {
		s.logger.Warn("ignoring malformed deleted event", "event", push.Event, "error", err)
		return
	}
	coll.ApplyDeleted(tomb.ID)
}
