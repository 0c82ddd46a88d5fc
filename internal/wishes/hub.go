// Package wishes pushes new guest wishes to open invitation pages over
// websockets. Each invitation subdomain is a room; a wish published for a
// subdomain reaches every page currently open for it.
package wishes

import (
	"context"
	"encoding/json"
	"log/slog"

	"undangan/internal/models"
)

// sendBuffer is the per-client queue of outgoing frames. A client that
// falls this far behind is dropped.
const sendBuffer = 16

// Message is the frame sent to browsers.
type Message struct {
	Type string      `json:"type"`
	Wish models.Wish `json:"wish"`
}

type outbound struct {
	room string
	data []byte
}

type countRequest struct {
	room  string
	reply chan int
}

// Hub tracks connected clients per room. All room state is owned by the
// Run goroutine; other goroutines talk to it through channels.
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	counts     chan countRequest
	done       chan struct{}
}

// NewHub creates a hub. Nothing is delivered until Run is called.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 64),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is cancelled, then disconnects every client.
// It always returns nil so it can be run in an errgroup.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for room, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
				delete(h.rooms, room)
			}
			slog.Info("wish hub stopped")
			return nil

		case c := <-h.register:
			clients, ok := h.rooms[c.room]
			if !ok {
				clients = make(map[*Client]struct{})
				h.rooms[c.room] = clients
			}
			clients[c] = struct{}{}
			slog.Debug("wish client joined", "room", c.room, "clients", len(clients))

		case c := <-h.unregister:
			h.remove(c)

		case req := <-h.counts:
			req.reply <- len(h.rooms[req.room])

		case msg := <-h.broadcast:
			for c := range h.rooms[msg.room] {
				select {
				case c.send <- msg.data:
				default:
					slog.Warn("wish client too slow, dropping", "room", msg.room)
					h.remove(c)
				}
			}
		}
	}
}

// Publish queues wish for every client in room. It never blocks once the
// hub has stopped, and drops the wish if the hub's queue is full.
func (h *Hub) Publish(room string, wish models.Wish) {
	data, err := json.Marshal(Message{Type: "wish", Wish: wish})
	if err != nil {
		slog.Error("encode wish", "error", err)
		return
	}
	select {
	case h.broadcast <- outbound{room: room, data: data}:
	case <-h.done:
	default:
		slog.Warn("wish hub queue full, dropping wish", "room", room)
	}
}

// Count returns the number of open pages in room. It is 0 once the hub
// has stopped.
func (h *Hub) Count(room string) int {
	req := countRequest{room: room, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
	slog.Debug("wish client left", "room", c.room, "clients", len(clients))
}

// join registers c, or reports false if the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
