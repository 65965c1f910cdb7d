// Package models holds the documents exchanged between the store, the HTTP
// surface and the realtime layer. JSON field names are part of the wire
// contract between server and clients, so keep them stable.
package models

import "time"

// Post is a top-level discussion entry.
type Post struct {
	ID        string    `json:"_id" cbor:"_id"`
	OwnerID   string    `json:"ownerId" cbor:"ownerId"`
	Username  string    `json:"username" cbor:"username"`
	Avatar    string    `json:"avatar,omitempty" cbor:"avatar,omitempty"`
	Body      string    `json:"post" cbor:"post"`
	CreatedAt time.Time `json:"createdAt" cbor:"createdAt"`
}

// Comment belongs to one post.
type Comment struct {
	ID        string    `json:"_id" cbor:"_id"`
	PostID    string    `json:"postId" cbor:"postId"`
	OwnerID   string    `json:"ownerId" cbor:"ownerId"`
	Username  string    `json:"username" cbor:"username"`
	Avatar    string    `json:"avatar,omitempty" cbor:"avatar,omitempty"`
	Body      string    `json:"comment" cbor:"comment"`
	CreatedAt time.Time `json:"createdAt" cbor:"createdAt"`
}

// Reply belongs to one comment. It carries both parent ids so a client can
// route it to the correct nested collection.
type Reply struct {
	ID        string    `json:"_id" cbor:"_id"`
	PostID    string    `json:"postId" cbor:"postId"`
	CommentID string    `json:"commentId" cbor:"commentId"`
	OwnerID   string    `json:"ownerId" cbor:"ownerId"`
	Username  string    `json:"username" cbor:"username"`
	Avatar    string    `json:"avatar,omitempty" cbor:"avatar,omitempty"`
	Body      string    `json:"reply" cbor:"reply"`
	CreatedAt time.Time `json:"createdAt" cbor:"createdAt"`
}

// Tombstone is the payload of a deletion event: the removed id plus the
// parent ids receivers need to locate the target collection.
type Tombstone struct {
	ID        string `json:"_id"`
	PostID    string `json:"postId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
}

// Identity is what the session collaborator supplies for tagging writes.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

func (p Post) ItemID() string      { return p.ID }
func (c Comment) ItemID() string   { return c.ID }
func (r Reply) ItemID() string     { return r.ID }
func (t Tombstone) ItemID() string { return t.ID }
