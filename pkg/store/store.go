// Package store persists the board's documents. The canonical backend is
// bbolt with CBOR-encoded documents; MemStore backs tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agorahq/agora/pkg/models"
)

// ErrNotFound is returned when the target id does not exist. Updates and
// deletes against a missing id report it rather than inventing a document.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence collaborator the broadcaster writes through.
// Writes return the stored document so callers can broadcast exactly what
// was persisted. Ids are assigned here and never reused; they are ULIDs, so
// key order is creation order.
type Store interface {
	CreatePost(ctx context.Context, p *models.Post) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// ListPosts returns newest first.
	ListPosts(ctx context.Context) ([]*models.Post, error)
	UpdatePost(ctx context.Context, id, body string) (*models.Post, error)
	DeletePost(ctx context.Context, id string) (*models.Post, error)

	CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	// ListComments returns the post's comments newest first.
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, id, body string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) (*models.Comment, error)

	CreateReply(ctx context.Context, r *models.Reply) (*models.Reply, error)
	GetReply(ctx context.Context, id string) (*models.Reply, error)
	// ListReplies returns the comment's replies oldest first.
	ListReplies(ctx context.Context, commentID string) ([]*models.Reply, error)
	UpdateReply(ctx context.Context, id, body string) (*models.Reply, error)
	DeleteReply(ctx context.Context, id string) (*models.Reply, error)

	Close() error
}

// NewID returns a fresh ULID. Lexicographic order matches creation order,
// which is what the list scans rely on.
func NewID() string {
	return ulid.Make().String()
}

func now() time.Time {
	return time.Now().UTC()
}
