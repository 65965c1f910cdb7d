package board

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agorahq/agora/pkg/event"
	"github.com/agorahq/agora/pkg/models"
	"github.com/agorahq/agora/pkg/store"
)

type emitted struct {
	room    string
	event   string
	payload any
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

var _ Emitter = (*recordingEmitter)(nil)

func (e *recordingEmitter) Emit(room, eventName string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{room: room, event: eventName, payload: payload})
}

func (e *recordingEmitter) all() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emitted(nil), e.events...)
}

var ada = models.Identity{UID: "u1", DisplayName: "ada", PhotoURL: "https://img/ada.png"}

func newTestService(t *testing.T) (*Service, *recordingEmitter) {
	t.Helper()
	em := &recordingEmitter{}
	return NewService(store.NewMemStore(), em, nil), em
}

func TestCreatePostStampsAuthorAndEmits(t *testing.T) {
	svc, em := newTestService(t)

	stored, err := svc.CreatePost(context.Background(), ada, "hello")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.OwnerID)
	assert.Equal(t, "ada", stored.Username)
	assert.Equal(t, "https://img/ada.png", stored.Avatar)

	events := em.all()
	require.Len(t, events, 1)
	assert.Equal(t, event.RoomGlobalPosts, events[0].room)
	assert.Equal(t, event.NewPost, events[0].event)

	// The broadcast payload is the stored document, id and timestamp
	// included, so subscribers merge exactly what readers would fetch.
	payload, ok := events[0].payload.(*models.Post)
	require.True(t, ok)
	assert.Equal(t, stored.ID, payload.ID)
}

func TestUpdateMissingPostDoesNotEmit(t *testing.T) {
	svc, em := newTestService(t)

	_, err := svc.UpdatePost(context.Background(), "nope", "body")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, em.all())
}

func TestDeletePostEmitsTombstone(t *testing.T) {
	svc, em := newTestService(t)

	stored, err := svc.CreatePost(context.Background(), ada, "doomed")
	require.NoError(t, err)

	_, err = svc.DeletePost(context.Background(), stored.ID)
	require.NoError(t, err)

	events := em.all()
	require.Len(t, events, 2)
	assert.Equal(t, event.PostDeleted, events[1].event)

	tomb, ok := events[1].payload.(models.Tombstone)
	require.True(t, ok)
	assert.Equal(t, stored.ID, tomb.ID)
}

func TestCommentEventsScopedToPostRoom(t *testing.T) {
	svc, em := newTestService(t)

	post, err := svc.CreatePost(context.Background(), ada, "parent")
	require.NoError(t, err)

	comment, err := svc.CreateComment(context.Background(), ada, post.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)

	_, err = svc.UpdateComment(context.Background(), comment.ID, "edited")
	require.NoError(t, err)

	_, err = svc.DeleteComment(context.Background(), comment.ID)
	require.NoError(t, err)

	events := em.all()
	require.Len(t, events, 4)
	for _, e := range events[1:] {
		assert.Equal(t, event.PostRoom(post.ID), e.room)
	}
	assert.Equal(t, event.NewComment, events[1].event)
	assert.Equal(t, event.CommentUpdated, events[2].event)
	assert.Equal(t, event.CommentDeleted, events[3].event)

	tomb, ok := events[3].payload.(models.Tombstone)
	require.True(t, ok)
	assert.Equal(t, comment.ID, tomb.ID)
	assert.Equal(t, post.ID, tomb.PostID)
}

func TestCommentOnMissingPostFails(t *testing.T) {
	svc, em := newTestService(t)

	_, err := svc.CreateComment(context.Background(), ada, "ghost", "body")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, em.all())
}

func TestReplyEventsScopedToCommentRoom(t *testing.T) {
	svc, em := newTestService(t)

	post, err := svc.CreatePost(context.Background(), ada, "parent")
	require.NoError(t, err)
	comment, err := svc.CreateComment(context.Background(), ada, post.ID, "thread")
	require.NoError(t, err)

	reply, err := svc.CreateReply(context.Background(), ada, comment.ID, "me too")
	require.NoError(t, err)

	// The parent comment supplies the post id.
	assert.Equal(t, post.ID, reply.PostID)
	assert.Equal(t, comment.ID, reply.CommentID)

	_, err = svc.DeleteReply(context.Background(), reply.ID)
	require.NoError(t, err)

	events := em.all()
	require.Len(t, events, 4)
	assert.Equal(t, event.CommentRoom(comment.ID), events[2].room)
	assert.Equal(t, event.NewReply, events[2].event)
	assert.Equal(t, event.ReplyDeleted, events[3].event)

	tomb, ok := events[3].payload.(models.Tombstone)
	require.True(t, ok)
	assert.Equal(t, reply.ID, tomb.ID)
	assert.Equal(t, post.ID, tomb.PostID)
	assert.Equal(t, comment.ID, tomb.CommentID)
}

func TestReplyOnMissingCommentFails(t *testing.T) {
	svc, em := newTestService(t)

	_, err := svc.CreateReply(context.Background(), ada, "ghost", "body")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, em.all())
}
