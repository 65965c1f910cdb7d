package agora

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/agorahq/agora/pkg/event"
	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/models"
	"github.com/agorahq/agora/pkg/transport"
	"github.com/agorahq/agora/pkg/transport/gorillaws"
)

// ClientConfig carries the connection details for a Client.
type ClientConfig struct {
	// BaseURL is the server root, e.g. https://forum.example.com. The
	// websocket endpoint is derived from it unless WSURL overrides.
	BaseURL string
	// WSURL overrides the derived ws:// endpoint.
	WSURL string
	// Token is the bearer token attached to every API request, if set.
	Token string

	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client talks to one agora server. All subscriptions created through a
// Client share a single websocket session, dialed on the first Start and
// closed when the last subscription tears down.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	shared  *SharedConn
	logger  logger.Logger
}

// NewClient builds a Client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, transport.ErrNoBaseURL
	}

	wsURL := cfg.WSURL
	if wsURL == "" {
		derived, err := deriveWSURL(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		wsURL = derived
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := logger.OrNop(cfg.Logger)

	dial := func(ctx context.Context) (transport.Connection, error) {
		conn := gorillaws.New(gorillaws.Config{
			BaseURL: wsURL,
			Logger:  log,
		})
		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}
		return conn, nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
		shared:  NewSharedConn(dial, log),
		logger:  log,
	}, nil
}

// deriveWSURL maps http(s) base URLs onto the /ws endpoint.
func deriveWSURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("agora: parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("agora: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Shared exposes the underlying shared connection, mainly for tests.
func (c *Client) Shared() *SharedConn {
	return c.shared
}

// envelope matches the server's {status, data} response body.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("agora: decode %s %s: %w", method, path, err)
	}
	if res.StatusCode >= 400 || env.Status != "success" {
		var msg string
		_ = json.Unmarshal(env.Data, &msg)
		if msg == "" {
			msg = res.Status
		}
		return fmt.Errorf("agora: %s %s: %s", method, path, msg)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("agora: decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// Posts fetches the post feed, newest first.
func (c *Client) Posts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Comments fetches the comments for a post, newest first.
func (c *Client) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	path := "/api/posts/" + url.PathEscape(postID) + "/comments"
	if err := c.do(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Replies fetches the replies for a comment, oldest first.
func (c *Client) Replies(ctx context.Context, commentID string) ([]models.Reply, error) {
	var replies []models.Reply
	path := "/api/comments/" + url.PathEscape(commentID) + "/replies"
	if err := c.do(ctx, http.MethodGet, path, nil, &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// CreatePost publishes a new post and returns the stored document.
func (c *Client) CreatePost(ctx context.Context, text string) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", map[string]string{"post": text}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost edits a post's body.
func (c *Client) UpdatePost(ctx context.Context, id, text string) (*models.Post, error) {
	var post models.Post
	path := "/api/posts/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"post": text}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil)
}

// CreateComment publishes a comment under a post.
func (c *Client) CreateComment(ctx context.Context, postID, text string) (*models.Comment, error) {
	var comment models.Comment
	path := "/api/posts/" + url.PathEscape(postID) + "/comments"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"comment": text}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateComment edits a comment's body.
func (c *Client) UpdateComment(ctx context.Context, id, text string) (*models.Comment, error) {
	var comment models.Comment
	path := "/api/comments/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"comment": text}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(id), nil, nil)
}

// CreateReply publishes a reply under a comment.
func (c *Client) CreateReply(ctx context.Context, commentID, text string) (*models.Reply, error) {
	var reply models.Reply
	path := "/api/comments/" + url.PathEscape(commentID) + "/replies"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"reply": text}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// UpdateReply edits a reply's body.
func (c *Client) UpdateReply(ctx context.Context, id, text string) (*models.Reply, error) {
	var reply models.Reply
	path := "/api/replies/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"reply": text}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// DeleteReply removes a reply.
func (c *Client) DeleteReply(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/replies/"+url.PathEscape(id), nil, nil)
}

// SubscribePosts builds the subscription backing the main feed view: the
// global post list plus live create/update/delete broadcasts, newest first.
func (c *Client) SubscribePosts() *Subscription[models.Post] {
	return NewSubscription(SubscriptionConfig[models.Post]{
		Room:    event.RoomGlobalPosts,
		Events:  event.PostEvents,
		Order:   OrderNewestFirst,
		Fetch:   c.Posts,
		Acquire: c.shared.Acquire,
		Release: c.shared.Release,
		Logger:  c.logger,
	})
}

// SubscribeComments builds the subscription backing one post's comment view.
func (c *Client) SubscribeComments(postID string) *Subscription[models.Comment] {
	return NewSubscription(SubscriptionConfig[models.Comment]{
		Room:   event.PostRoom(postID),
		Events: event.CommentEvents,
		Order:  OrderNewestFirst,
		Fetch: func(ctx context.Context) ([]models.Comment, error) {
			return c.Comments(ctx, postID)
		},
		Acquire: c.shared.Acquire,
		Release: c.shared.Release,
		Logger:  c.logger,
	})
}

// SubscribeReplies builds the subscription backing one comment's reply
// thread. Replies read top down, so created items append.
func (c *Client) SubscribeReplies(commentID string) *Subscription[models.Reply] {
	return NewSubscription(SubscriptionConfig[models.Reply]{
		Room:   event.CommentRoom(commentID),
		Events: event.ReplyEvents,
		Order:  OrderOldestFirst,
		Fetch: func(ctx context.Context) ([]models.Reply, error) {
			return c.Replies(ctx, commentID)
		},
		Acquire: c.shared.Acquire,
		Release: c.shared.Release,
		Logger:  c.logger,
	})
}
