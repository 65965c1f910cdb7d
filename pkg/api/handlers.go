package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/agorahq/agora/pkg/auth"
	"github.com/agorahq/agora/pkg/models"
)

// bodyPayload is the write body for every entity: just the text. Author
// fields come from the verified identity, ids from the path.
type bodyPayload struct {
	Post    string `json:"post,omitempty"`
	Comment string `json:"comment,omitempty"`
	Reply   string `json:"reply,omitempty"`
}

func (a *API) author(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing or invalid bearer token")
		return models.Identity{}, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request) (bodyPayload, bool) {
	var p bodyPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return p, false
	}
	return p, true
}

// Posts

func (a *API) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.svc.ListPosts(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

func (a *API) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	author, ok := a.author(w, r)
	if !ok {
		return
	}
	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	post, err := a.svc.CreatePost(r.Context(), author, payload.Post)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

func (a *API) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := a.svc.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func (a *API) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.author(w, r); !ok {
		return
	}
	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	post, err := a.svc.UpdatePost(r.Context(), mux.Vars(r)["id"], payload.Post)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func (a *API) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.author(w, r); !ok {
		return
	}

	removed, err := a.svc.DeletePost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, removed)
}

// Comments

func (a *API) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := a.svc.ListComments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

func (a *API) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	author, ok := a.author(w, r)
	if !ok {
		return
	}
	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	comment, err := a.svc.CreateComment(r.Context(), author, mux.Vars(r)["id"], payload.Comment)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (a *API) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.author(w, r); !ok {
		return
	}
	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	comment, err := a.svc.UpdateComment(r.Context(), mux.Vars(r)["id"], payload.Comment)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, comment)
}

func (a *API) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.author(w, r); !ok {
		return
	}

	removed, err := a.svc.DeleteComment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, removed)
}

// Replies

func (a *API) handleListReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := a.svc.ListReplies(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, replies)
}

func (a *API) handleCreateReply(w http.ResponseWriter, r *http.Request) {
	author, ok := a.author(w, r)
	if !ok {
		return
	}
	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	reply, err := a.svc.CreateReply(r.Context(), author, mux.Vars(r)["id"], payload.Reply)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, reply)
}

func (a *API) handleUpdateReply(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.author(w, r); !ok {
		return
	}
	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	reply, err := a.svc.UpdateReply(r.Context(), mux.Vars(r)["id"], payload.Reply)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func (a *API) handleDeleteReply(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.author(w, r); !ok {
		return
	}

	removed, err := a.svc.DeleteReply(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, removed)
}
