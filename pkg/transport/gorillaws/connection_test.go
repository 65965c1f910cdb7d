package gorillaws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agorahq/agora/pkg/event"
	"github.com/agorahq/agora/pkg/hub"
	"github.com/agorahq/agora/pkg/models"
	"github.com/agorahq/agora/pkg/transport"
)

const recvWait = 2 * time.Second

type testServer struct {
	hub *hub.Hub
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	h := hub.New(nil)
	srv := httptest.NewServer(hub.NewHandler(h, nil, nil))
	t.Cleanup(srv.Close)
	return &testServer{hub: h, srv: srv}
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

func (ts *testServer) connect(t *testing.T) *Connection {
	t.Helper()
	conn := New(Config{BaseURL: ts.wsURL()})
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() {
		_ = conn.Close(context.Background())
	})
	return conn
}

// waitForMember blocks until the server side registered the membership.
func (ts *testServer) waitForMember(t *testing.T, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ts.hub.MemberCount(room) == n
	}, recvWait, 5*time.Millisecond)
}

func recvPush(t *testing.T, ch <-chan transport.Push) transport.Push {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(recvWait):
		t.Fatal("timed out waiting for push")
		return transport.Push{}
	}
}

func assertNoPush(t *testing.T, ch <-chan transport.Push) {
	t.Helper()
	select {
	case p := <-ch:
		t.Fatalf("unexpected push: %+v", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	require.NoError(t, conn.Connect(context.Background()))
}

func TestConnectWithoutBaseURL(t *testing.T) {
	conn := New(Config{})
	require.ErrorIs(t, conn.Connect(context.Background()), transport.ErrNoBaseURL)
}

func TestJoinReceivesRoomBroadcasts(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	pushes := make(chan transport.Push, 8)
	off := conn.On(event.NewPost, func(p transport.Push) {
		pushes <- p
	})
	defer off()

	require.NoError(t, conn.Join(context.Background(), event.RoomGlobalPosts))
	ts.waitForMember(t, event.RoomGlobalPosts, 1)

	ts.hub.Broadcast(event.RoomGlobalPosts, event.NewPost, models.Post{ID: "p1", Body: "hello"})

	got := recvPush(t, pushes)
	assert.Equal(t, event.NewPost, got.Event)
	assert.Equal(t, event.RoomGlobalPosts, got.Room)

	var post models.Post
	require.NoError(t, json.Unmarshal(got.Payload, &post))
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "hello", post.Body)
}

func TestPushOrderIsPreserved(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	pushes := make(chan transport.Push, 16)
	off := conn.On(event.NewPost, func(p transport.Push) {
		pushes <- p
	})
	defer off()

	require.NoError(t, conn.Join(context.Background(), event.RoomGlobalPosts))
	ts.waitForMember(t, event.RoomGlobalPosts, 1)

	want := []string{"p1", "p2", "p3", "p4"}
	for _, id := range want {
		ts.hub.Broadcast(event.RoomGlobalPosts, event.NewPost, models.Post{ID: id})
	}

	for _, id := range want {
		var post models.Post
		require.NoError(t, json.Unmarshal(recvPush(t, pushes).Payload, &post))
		assert.Equal(t, id, post.ID)
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	pushes := make(chan transport.Push, 8)
	off := conn.On(event.NewComment, func(p transport.Push) {
		pushes <- p
	})
	defer off()

	room := event.PostRoom("p1")
	require.NoError(t, conn.Join(context.Background(), room))
	ts.waitForMember(t, room, 1)

	require.NoError(t, conn.Leave(context.Background(), room))
	ts.waitForMember(t, room, 0)

	ts.hub.Broadcast(room, event.NewComment, models.Comment{ID: "c1"})
	assertNoPush(t, pushes)
}

func TestOffStopsDelivery(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	pushes := make(chan transport.Push, 8)
	off := conn.On(event.NewPost, func(p transport.Push) {
		pushes <- p
	})

	require.NoError(t, conn.Join(context.Background(), event.RoomGlobalPosts))
	ts.waitForMember(t, event.RoomGlobalPosts, 1)

	off()
	// Idempotent.
	off()

	ts.hub.Broadcast(event.RoomGlobalPosts, event.NewPost, models.Post{ID: "p1"})
	assertNoPush(t, pushes)
}

func TestUnknownMethodReturnsWireError(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	err := conn.request(context.Background(), "subscribe", "room")
	require.Error(t, err)

	var wireErr *transport.WireError
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, 400, wireErr.Code)
}

func TestCloseFailsPendingAndFutureRequests(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	require.NoError(t, conn.Close(context.Background()))
	require.NoError(t, conn.Close(context.Background()))

	err := conn.Join(context.Background(), event.RoomGlobalPosts)
	require.ErrorIs(t, err, transport.ErrClosed)
	assert.True(t, conn.IsClosed())
}

func TestServerDropsMembershipOnDisconnect(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	require.NoError(t, conn.Join(context.Background(), event.RoomGlobalPosts))
	ts.waitForMember(t, event.RoomGlobalPosts, 1)

	require.NoError(t, conn.Close(context.Background()))
	ts.waitForMember(t, event.RoomGlobalPosts, 0)
	assert.Equal(t, 0, ts.hub.Rooms())
}

func TestDoneClosesWhenServerDisconnects(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect(t)

	ts.srv.CloseClientConnections()

	select {
	case <-conn.Done():
	case <-time.After(recvWait):
		t.Fatal("Done not closed after server dropped the connection")
	}
}
