package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agorahq/agora/pkg/models"
)

// MemStore is an in-memory Store for tests and local development. Same
// ordering behavior as BoltStore: list scans follow ULID key order.
type MemStore struct {
	mu       sync.Mutex
	posts    map[string]*models.Post
	comments map[string]*models.Comment
	replies  map[string]*models.Reply
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		posts:    make(map[string]*models.Post),
		comments: make(map[string]*models.Comment),
		replies:  make(map[string]*models.Reply),
	}
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) CreatePost(ctx context.Context, p *models.Post) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *p
	stored.ID = NewID()
	stored.CreatedAt = now()
	s.posts[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *p
	return &out, nil
}

func (s *MemStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	// Newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		out := *s.posts[id]
		posts = append(posts, &out)
	}
	return posts, nil
}

func (s *MemStore) UpdatePost(ctx context.Context, id, body string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.Body = body
	out := *p
	return &out, nil
}

func (s *MemStore) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.posts, id)
	out := *p
	return &out, nil
}

func (s *MemStore) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	stored.ID = NewID()
	stored.CreatedAt = now()
	s.comments[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *c
	return &out, nil
}

func (s *MemStore) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.comments))
	for id, c := range s.comments {
		if c.PostID == postID {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	comments := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		out := *s.comments[id]
		comments = append(comments, &out)
	}
	return comments, nil
}

func (s *MemStore) UpdateComment(ctx context.Context, id, body string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.Body = body
	out := *c
	return &out, nil
}

func (s *MemStore) DeleteComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.comments, id)
	out := *c
	return &out, nil
}

func (s *MemStore) CreateReply(ctx context.Context, r *models.Reply) (*models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *r
	stored.ID = NewID()
	stored.CreatedAt = now()
	s.replies[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *MemStore) GetReply(ctx context.Context, id string) (*models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.replies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *r
	return &out, nil
}

func (s *MemStore) ListReplies(ctx context.Context, commentID string) ([]*models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.replies))
	for id, r := range s.replies {
		if r.CommentID == commentID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	replies := make([]*models.Reply, 0, len(ids))
	for _, id := range ids {
		out := *s.replies[id]
		replies = append(replies, &out)
	}
	return replies, nil
}

func (s *MemStore) UpdateReply(ctx context.Context, id, body string) (*models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.replies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.Body = body
	out := *r
	return &out, nil
}

func (s *MemStore) DeleteReply(ctx context.Context, id string) (*models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.replies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.replies, id)
	out := *r
	return &out, nil
}
