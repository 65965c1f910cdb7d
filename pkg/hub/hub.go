// Package hub is the server half of the event channel: it tracks which
// session belongs to which room and fans change events out to exactly the
// current member set.
package hub

import (
	"sync"

	"github.com/agorahq/agora/internal/codec"
	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/metrics"
	"github.com/agorahq/agora/pkg/transport"
)

// Member is one subscriber connection. Queue hands the member an encoded
// frame for ordered delivery; it must not block, and returns false when the
// frame was dropped instead of queued.
type Member interface {
	ID() string
	Queue(frame []byte) bool
}

// Hub maps rooms to member sets. Rooms come into existence on first join and
// are forgotten when their last member leaves, so an idle server holds no
// per-room state.
type Hub struct {
	mu          sync.Mutex
	rooms       map[string]map[Member]struct{}
	memberRooms map[Member]map[string]struct{}

	marshaler codec.Marshaler
	logger    logger.Logger
}

func New(log logger.Logger) *Hub {
	return &Hub{
		rooms:       make(map[string]map[Member]struct{}),
		memberRooms: make(map[Member]map[string]struct{}),
		marshaler:   codec.JSON{},
		logger:      logger.OrNop(log),
	}
}

// Join adds m to the room's member set. Joining a room twice is a no-op.
func (h *Hub) Join(m Member, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[Member]struct{})
		h.rooms[room] = members
		metrics.RoomsActive.Set(float64(len(h.rooms)))
	}
	if _, ok := members[m]; ok {
		return
	}
	members[m] = struct{}{}

	joined, ok := h.memberRooms[m]
	if !ok {
		joined = make(map[string]struct{})
		h.memberRooms[m] = joined
	}
	joined[room] = struct{}{}

	h.logger.Debug("member joined room", "member", m.ID(), "room", room)
}

// Leave removes m from the room. Leaving a room m is not in is a no-op.
func (h *Hub) Leave(m Member, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(m, room)
}

// Drop removes m from every room it joined. Called on unclean disconnects so
// no membership leaks past the connection.
func (h *Hub) Drop(m Member) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.memberRooms[m] {
		h.leaveLocked(m, room)
	}
}

func (h *Hub) leaveLocked(m Member, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	if _, ok := members[m]; !ok {
		return
	}
	delete(members, m)
	if len(members) == 0 {
		delete(h.rooms, room)
		metrics.RoomsActive.Set(float64(len(h.rooms)))
	}

	joined := h.memberRooms[m]
	delete(joined, room)
	if len(joined) == 0 {
		delete(h.memberRooms, m)
	}

	h.logger.Debug("member left room", "member", m.ID(), "room", room)
}

// Broadcast delivers one event to every current member of the room. The
// whole fan-out happens under the hub lock, so two broadcasts to the same
// room reach every member in the same order. Queueing is non-blocking;
// best-effort delivery means a member with a full queue simply misses the
// event.
func (h *Hub) Broadcast(room, eventName string, payload any) {
	data, err := h.encodePush(room, eventName, payload)
	if err != nil {
		h.logger.Error("failed to encode push frame", "event", eventName, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	if len(members) == 0 {
		return
	}

	metrics.EventsBroadcastTotal.WithLabelValues(eventName).Inc()

	for m := range members {
		if !m.Queue(data) {
			metrics.EventsDroppedTotal.Inc()
			h.logger.Warn("dropping event for slow member", "member", m.ID(), "event", eventName, "room", room)
		}
	}
}

// Emit satisfies the broadcaster's emitter contract.
func (h *Hub) Emit(room, eventName string, payload any) {
	h.Broadcast(room, eventName, payload)
}

func (h *Hub) encodePush(room, eventName string, payload any) ([]byte, error) {
	raw, err := h.marshaler.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return h.marshaler.Marshal(transport.Push{
		Event:   eventName,
		Room:    room,
		Payload: raw,
	})
}

// Rooms returns the number of live rooms.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// MemberCount returns the size of the room's member set.
func (h *Hub) MemberCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
