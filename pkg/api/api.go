// Package api is the request/response surface clients use to obtain an
// initial collection before subscribing, and to issue writes. All writes go
// through the board service so change events fire after persistence.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/agorahq/agora/pkg/board"
	"github.com/agorahq/agora/pkg/logger"
	"github.com/agorahq/agora/pkg/metrics"
	"github.com/agorahq/agora/pkg/store"
)

type API struct {
	svc    *board.Service
	logger logger.Logger
}

func New(svc *board.Service, log logger.Logger) *API {
	return &API{svc: svc, logger: logger.OrNop(log)}
}

// Register mounts all board routes on r.
func (a *API) Register(r *mux.Router) {
	r.Use(countRequests)

	r.HandleFunc("/posts", a.handleListPosts).Methods(http.MethodGet)
	r.HandleFunc("/posts", a.handleCreatePost).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}", a.handleGetPost).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}", a.handleUpdatePost).Methods(http.MethodPut)
	r.HandleFunc("/posts/{id}", a.handleDeletePost).Methods(http.MethodDelete)

	r.HandleFunc("/posts/{id}/comments", a.handleListComments).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}/comments", a.handleCreateComment).Methods(http.MethodPost)
	r.HandleFunc("/comments/{id}", a.handleUpdateComment).Methods(http.MethodPut)
	r.HandleFunc("/comments/{id}", a.handleDeleteComment).Methods(http.MethodDelete)

	r.HandleFunc("/comments/{id}/replies", a.handleListReplies).Methods(http.MethodGet)
	r.HandleFunc("/comments/{id}/replies", a.handleCreateReply).Methods(http.MethodPost)
	r.HandleFunc("/replies/{id}", a.handleUpdateReply).Methods(http.MethodPut)
	r.HandleFunc("/replies/{id}", a.handleDeleteReply).Methods(http.MethodDelete)
}

func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// countRequests feeds the API request counter.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.APIRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.code)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}
