// Package board implements the write path of the community board: persist a
// mutation, then broadcast a change event to the room(s) scoped to it.
//
// Broadcasting is strictly a side effect of a successful write. A failed
// write never emits; a failed emit never fails the write.
package board

import (
	"context"

	"github.com/agorahq/agora/pkg/event"
	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/models"
	"github.com/agorahq/agora/pkg/store"
)

// Emitter is the hub-facing half of the broadcaster. Emit is fire-and-forget
// and must never block on subscriber processing.
type Emitter interface {
	Emit(room, eventName string, payload any)
}

// Service wraps the store with event emission.
type Service struct {
	store   store.Store
	emitter Emitter
	logger  logger.Logger
}

func NewService(st store.Store, em Emitter, log logger.Logger) *Service {
	return &Service{
		store:   st,
		emitter: em,
		logger:  logger.OrNop(log),
	}
}

// stamp tags a write with the author identity supplied by the session
// collaborator.
func stamp(id models.Identity, ownerID, username, avatar *string) {
	*ownerID = id.UID
	*username = id.DisplayName
	*avatar = id.PhotoURL
}

// Posts

func (s *Service) CreatePost(ctx context.Context, author models.Identity, body string) (*models.Post, error) {
	post := &models.Post{Body: body}
	stamp(author, &post.OwnerID, &post.Username, &post.Avatar)

	stored, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.RoomGlobalPosts, event.NewPost, stored)
	return stored, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.store.GetPost(ctx, id)
}

func (s *Service) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.store.ListPosts(ctx)
}

func (s *Service) UpdatePost(ctx context.Context, id, body string) (*models.Post, error) {
	stored, err := s.store.UpdatePost(ctx, id, body)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.RoomGlobalPosts, event.PostUpdated, stored)
	return stored, nil
}

func (s *Service) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	removed, err := s.store.DeletePost(ctx, id)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.RoomGlobalPosts, event.PostDeleted, models.Tombstone{ID: removed.ID})
	return removed, nil
}

// Comments

func (s *Service) CreateComment(ctx context.Context, author models.Identity, postID, body string) (*models.Comment, error) {
	// The parent post must exist; commenting on a deleted post is a write
	// error, not a broadcast concern.
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, Body: body}
	stamp(author, &comment.OwnerID, &comment.Username, &comment.Avatar)

	stored, err := s.store.CreateComment(ctx, comment)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.PostRoom(postID), event.NewComment, stored)
	return stored, nil
}

func (s *Service) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	return s.store.ListComments(ctx, postID)
}

func (s *Service) UpdateComment(ctx context.Context, id, body string) (*models.Comment, error) {
	stored, err := s.store.UpdateComment(ctx, id, body)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.PostRoom(stored.PostID), event.CommentUpdated, stored)
	return stored, nil
}

func (s *Service) DeleteComment(ctx context.Context, id string) (*models.Comment, error) {
	removed, err := s.store.DeleteComment(ctx, id)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.PostRoom(removed.PostID), event.CommentDeleted, models.Tombstone{
		ID:     removed.ID,
		PostID: removed.PostID,
	})
	return removed, nil
}

// Replies

func (s *Service) CreateReply(ctx context.Context, author models.Identity, commentID, body string) (*models.Reply, error) {
	parent, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	reply := &models.Reply{PostID: parent.PostID, CommentID: commentID, Body: body}
	stamp(author, &reply.OwnerID, &reply.Username, &reply.Avatar)

	stored, err := s.store.CreateReply(ctx, reply)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.CommentRoom(commentID), event.NewReply, stored)
	return stored, nil
}

func (s *Service) ListReplies(ctx context.Context, commentID string) ([]*models.Reply, error) {
	return s.store.ListReplies(ctx, commentID)
}

func (s *Service) UpdateReply(ctx context.Context, id, body string) (*models.Reply, error) {
	stored, err := s.store.UpdateReply(ctx, id, body)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.CommentRoom(stored.CommentID), event.ReplyUpdated, stored)
	return stored, nil
}

func (s *Service) DeleteReply(ctx context.Context, id string) (*models.Reply, error) {
	removed, err := s.store.DeleteReply(ctx, id)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(event.CommentRoom(removed.CommentID), event.ReplyDeleted, models.Tombstone{
		ID:        removed.ID,
		PostID:    removed.PostID,
		CommentID: removed.CommentID,
	})
	return removed, nil
}
