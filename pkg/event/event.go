// Package event defines the room naming convention and event names shared by
// the server-side broadcaster and the client-side reconcilers. Both sides
// treat these strings as a wire contract.
package event

// Rooms scope delivery: a post mutation goes to the global feed, a comment
// mutation to its post's room, a reply mutation to its comment's room.
const (
	RoomGlobalPosts = "global-posts"

	roomPostPrefix    = "post:"
	roomCommentPrefix = "comment:"
)

func PostRoom(postID string) string {
	return roomPostPrefix + postID
}

func CommentRoom(commentID string) string {
	return roomCommentPrefix + commentID
}

// Event names, one trio per entity.
const (
	NewPost     = "newPost"
	PostUpdated = "postUpdated"
	PostDeleted = "postDeleted"

	NewComment     = "newComment"
	CommentUpdated = "commentUpdated"
	CommentDeleted = "commentDeleted"

	NewReply     = "newReply"
	ReplyUpdated = "replyUpdated"
	ReplyDeleted = "replyDeleted"
)

// Names groups the created/updated/deleted event names for one entity kind so
// subscriptions can register all three handlers at once.
type Names struct {
	Created string
	Updated string
	Deleted string
}

var (
	PostEvents    = Names{Created: NewPost, Updated: PostUpdated, Deleted: PostDeleted}
	CommentEvents = Names{Created: NewComment, Updated: CommentUpdated, Deleted: CommentDeleted}
	ReplyEvents   = Names{Created: NewReply, Updated: ReplyUpdated, Deleted: ReplyDeleted}
)
