package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hugh/taskboard/internal/api/middleware"
	"github.com/hugh/taskboard/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Upgrades are plain GETs and never preflighted, so the CORS layer
	// cannot gate them. Access control rests on the token auth the
	// route already requires; any origin may dial.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades authenticated requests onto the board relay.
type WSHandler struct {
	hub    *relay.Hub
	logger *slog.Logger
}

func NewWSHandler(hub *relay.Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	relay.NewClient(h.hub, conn, userID).Start()
}
