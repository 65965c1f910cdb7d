package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Envelope is the {status, data} shape every endpoint returns. Mutation
// endpoints put the mutated or removed document in data; error responses put
// the message there.
type Envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(Envelope{Status: statusSuccess, Data: data}); err != nil {
		// Headers are gone already; nothing left to do but drop it.
		return
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Envelope{Status: statusError, Data: message})
}
