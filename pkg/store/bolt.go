package store

import (
	"context"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/agorahq/agora/internal/codec"
	"github.com/agorahq/agora/pkg/models"
)

var (
	bucketPosts    = []byte("posts")
	bucketComments = []byte("comments")
	bucketReplies  = []byte("replies")
)

// BoltStore implements Store on bbolt, one bucket per entity, documents
// encoded as CBOR and keyed by their ULID.
type BoltStore struct {
	db    *bolt.DB
	codec codec.CBOR
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the database file under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "agora.db")

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPosts, bucketComments, bucketReplies} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Post operations

func (s *BoltStore) CreatePost(ctx context.Context, p *models.Post) (*models.Post, error) {
	stored := *p
	stored.ID = NewID()
	stored.CreatedAt = now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, bucketPosts, stored.ID, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *BoltStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.View(func(tx *bolt.Tx) error {
		return s.get(tx, bucketPosts, id, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *BoltStore) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.db.View(func(tx *bolt.Tx) error {
		// Reverse key scan: ULID order is creation order, so walking
		// backwards yields newest first.
		c := tx.Bucket(bucketPosts).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var post models.Post
			if err := s.codec.Unmarshal(v, &post); err != nil {
				return err
			}
			posts = append(posts, &post)
		}
		return nil
	})
	return posts, err
}

func (s *BoltStore) UpdatePost(ctx context.Context, id, body string) (*models.Post, error) {
	var post models.Post
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := s.get(tx, bucketPosts, id, &post); err != nil {
			return err
		}
		post.Body = body
		return s.put(tx, bucketPosts, id, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *BoltStore) DeletePost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := s.get(tx, bucketPosts, id, &post); err != nil {
			return err
		}
		return tx.Bucket(bucketPosts).Delete([]byte(id))
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Comment operations

func (s *BoltStore) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	stored := *c
	stored.ID = NewID()
	stored.CreatedAt = now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, bucketComments, stored.ID, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *BoltStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.View(func(tx *bolt.Tx) error {
		return s.get(tx, bucketComments, id, &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *BoltStore) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := s.db.View(func(tx *bolt.Tx) error {
		// Filtered reverse scan; key order is creation order, so walking
		// backwards yields newest first to match the feed.
		c := tx.Bucket(bucketComments).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var comment models.Comment
			if err := s.codec.Unmarshal(v, &comment); err != nil {
				return err
			}
			if comment.PostID == postID {
				comments = append(comments, &comment)
			}
		}
		return nil
	})
	return comments, err
}

func (s *BoltStore) UpdateComment(ctx context.Context, id, body string) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := s.get(tx, bucketComments, id, &comment); err != nil {
			return err
		}
		comment.Body = body
		return s.put(tx, bucketComments, id, &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *BoltStore) DeleteComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := s.get(tx, bucketComments, id, &comment); err != nil {
			return err
		}
		return tx.Bucket(bucketComments).Delete([]byte(id))
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Reply operations

func (s *BoltStore) CreateReply(ctx context.Context, r *models.Reply) (*models.Reply, error) {
	stored := *r
	stored.ID = NewID()
	stored.CreatedAt = now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, bucketReplies, stored.ID, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *BoltStore) GetReply(ctx context.Context, id string) (*models.Reply, error) {
	var reply models.Reply
	err := s.db.View(func(tx *bolt.Tx) error {
		return s.get(tx, bucketReplies, id, &reply)
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *BoltStore) ListReplies(ctx context.Context, commentID string) ([]*models.Reply, error) {
	var replies []*models.Reply
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReplies).ForEach(func(k, v []byte) error {
			var reply models.Reply
			if err := s.codec.Unmarshal(v, &reply); err != nil {
				return err
			}
			if reply.CommentID == commentID {
				replies = append(replies, &reply)
			}
			return nil
		})
	})
	return replies, err
}

func (s *BoltStore) UpdateReply(ctx context.Context, id, body string) (*models.Reply, error) {
	var reply models.Reply
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := s.get(tx, bucketReplies, id, &reply); err != nil {
			return err
		}
		reply.Body = body
		return s.put(tx, bucketReplies, id, &reply)
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *BoltStore) DeleteReply(ctx context.Context, id string) (*models.Reply, error) {
	var reply models.Reply
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := s.get(tx, bucketReplies, id, &reply); err != nil {
			return err
		}
		return tx.Bucket(bucketReplies).Delete([]byte(id))
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *BoltStore) put(tx *bolt.Tx, bucket []byte, id string, doc any) error {
	data, err := s.codec.Marshal(doc)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put([]byte(id), data)
}

func (s *BoltStore) get(tx *bolt.Tx, bucket []byte, id string, doc any) error {
	data := tx.Bucket(bucket).Get([]byte(id))
	if data == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.codec.Unmarshal(data, doc)
}
