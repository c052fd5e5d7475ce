// Package relay implements the realtime board channel: every event a
// client emits is re-broadcast verbatim to all other connected clients.
// There is no team or project scoping, no ordering, no acknowledgement
// and no persistence coupling; a broadcast may precede the REST commit
// for the same task.
package relay

import (
	"encoding/json"
	"log/slog"
)

// Event names carried on the channel.
const (
	EventUpdateTask = "update-task"
	EventCreateTask = "create-task"
)

// Message is the wire envelope. Data is the serialized task exactly as
// the sender produced it; the relay never rewrites it.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type frame struct {
	sender *Client
	data   []byte
}

// Hub maintains the set of active clients and fans incoming frames out
// to every client except the sender.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan frame
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan frame),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registration and broadcast events until the process
// exits. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("relay client connected", "user_id", client.UserID, "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("relay client disconnected", "user_id", client.UserID, "clients", len(h.clients))
			}

		case f := <-h.broadcast:
			for client := range h.clients {
				if client == f.sender {
					continue
				}
				select {
				case client.send <- f.data:
				default:
					// Slow consumer, drop the connection
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
