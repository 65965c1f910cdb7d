package hub

import (
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agorahq/agora/pkg/event"
	"github.com/agorahq/agora/pkg/models"
	"github.com/agorahq/agora/pkg/transport"
)

// fakeMember records queued frames; full simulates a member whose send
// buffer has no space left.
type fakeMember struct {
	id   string
	full bool

	mu     sync.Mutex
	frames [][]byte
}

var _ Member = (*fakeMember)(nil)

func (m *fakeMember) ID() string { return m.id }

func (m *fakeMember) Queue(frame []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return false
	}
	m.frames = append(m.frames, frame)
	return true
}

func (m *fakeMember) pushes(t *testing.T) []transport.Push {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]transport.Push, len(m.frames))
	for i, frame := range m.frames {
		require.NoError(t, json.Unmarshal(frame, &out[i]))
	}
	return out
}

func TestHubJoinIsIdempotent(t *testing.T) {
	h := New(nil)
	m := &fakeMember{id: "m1"}

	h.Join(m, event.RoomGlobalPosts)
	h.Join(m, event.RoomGlobalPosts)

	assert.Equal(t, 1, h.MemberCount(event.RoomGlobalPosts))
	assert.Equal(t, 1, h.Rooms())
}

func TestHubLeaveForgetsEmptyRooms(t *testing.T) {
	h := New(nil)
	m := &fakeMember{id: "m1"}

	h.Join(m, event.RoomGlobalPosts)
	h.Leave(m, event.RoomGlobalPosts)

	assert.Equal(t, 0, h.Rooms())

	// Leaving again, or leaving a room never joined, is a no-op.
	h.Leave(m, event.RoomGlobalPosts)
	h.Leave(m, "post:unknown")
	assert.Equal(t, 0, h.Rooms())
}

func TestHubBroadcastReachesOnlyRoomMembers(t *testing.T) {
	h := New(nil)
	inRoom := &fakeMember{id: "in"}
	elsewhere := &fakeMember{id: "out"}

	h.Join(inRoom, event.PostRoom("p1"))
	h.Join(elsewhere, event.PostRoom("p2"))

	h.Broadcast(event.PostRoom("p1"), event.NewComment, models.Comment{ID: "c1", PostID: "p1"})

	got := inRoom.pushes(t)
	require.Len(t, got, 1)
	assert.Equal(t, event.NewComment, got[0].Event)
	assert.Equal(t, event.PostRoom("p1"), got[0].Room)

	var c models.Comment
	require.NoError(t, json.Unmarshal(got[0].Payload, &c))
	assert.Equal(t, "c1", c.ID)

	assert.Empty(t, elsewhere.pushes(t))
}

func TestHubBroadcastToEmptyRoomIsNoop(t *testing.T) {
	h := New(nil)
	h.Broadcast("post:ghost", event.NewComment, models.Comment{ID: "c1"})
	assert.Equal(t, 0, h.Rooms())
}

func TestHubBroadcastOrderIsConsistent(t *testing.T) {
	h := New(nil)
	a := &fakeMember{id: "a"}
	b := &fakeMember{id: "b"}
	h.Join(a, event.RoomGlobalPosts)
	h.Join(b, event.RoomGlobalPosts)

	for _, id := range []string{"p1", "p2", "p3"} {
		h.Broadcast(event.RoomGlobalPosts, event.NewPost, models.Post{ID: id})
	}

	wantOrder := func(pushes []transport.Push) []string {
		out := make([]string, len(pushes))
		for i, p := range pushes {
			var post models.Post
			require.NoError(t, json.Unmarshal(p.Payload, &post))
			out[i] = post.ID
		}
		return out
	}

	assert.Equal(t, []string{"p1", "p2", "p3"}, wantOrder(a.pushes(t)))
	assert.Equal(t, []string{"p1", "p2", "p3"}, wantOrder(b.pushes(t)))
}

func TestHubSlowMemberDoesNotBlockOthers(t *testing.T) {
	h := New(nil)
	slow := &fakeMember{id: "slow", full: true}
	fast := &fakeMember{id: "fast"}
	h.Join(slow, event.RoomGlobalPosts)
	h.Join(fast, event.RoomGlobalPosts)

	h.Broadcast(event.RoomGlobalPosts, event.NewPost, models.Post{ID: "p1"})

	assert.Empty(t, slow.pushes(t))
	assert.Len(t, fast.pushes(t), 1)
}

func TestHubDropRemovesFromAllRooms(t *testing.T) {
	h := New(nil)
	m := &fakeMember{id: "m1"}
	other := &fakeMember{id: "m2"}

	h.Join(m, event.RoomGlobalPosts)
	h.Join(m, event.PostRoom("p1"))
	h.Join(other, event.PostRoom("p1"))

	h.Drop(m)

	assert.Equal(t, 0, h.MemberCount(event.RoomGlobalPosts))
	assert.Equal(t, 1, h.MemberCount(event.PostRoom("p1")))
	assert.Equal(t, 1, h.Rooms())

	// No membership left behind: a broadcast reaches only the survivor.
	h.Broadcast(event.PostRoom("p1"), event.NewComment, models.Comment{ID: "c1"})
	assert.Empty(t, m.pushes(t))
	assert.Len(t, other.pushes(t), 1)
}
