package hub

import (
	"net/http"

	"github.com/gofrs/uuid"
	gorilla "github.com/gorilla/websocket"

	"github.com/agorahq/agora/pkg/logger"
)

// Handler upgrades HTTP requests on the websocket endpoint into hub
// sessions.
type Handler struct {
	hub      *Hub
	upgrader gorilla.Upgrader
	logger   logger.Logger
}

// NewHandler builds the /ws endpoint. checkOrigin may be nil, which accepts
// every origin; authorization is out of scope here.
func NewHandler(h *Hub, log logger.Logger, checkOrigin func(*http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub: h,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:    4096,
			WriteBufferSize:   4096,
			EnableCompression: true,
			CheckOrigin:       checkOrigin,
		},
		logger: logger.OrNop(log),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.Must(uuid.NewV4()).String()
	sess := newSession(id, conn, h.hub, h.logger)

	h.logger.Debug("session connected", "session", id, "remote", r.RemoteAddr)
	sess.run()
}
