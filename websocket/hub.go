package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"friendbox/notify"

	"go.uber.org/zap"
)

// Hub tracks connected clients and the friendship rooms they joined. It
// delivers at most once: a client whose buffer is full misses the event.
type Hub struct {
	clients    map[string]*Client
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *zap.Logger
}

// Message is the envelope written to clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type ClientMessage struct {
	Action string `json:"action"`
	Room   string `json:"room,omitempty"`
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("hub"),
	}
}

// Run serves registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			for room := range client.rooms {
				h.joinLocked(client, room)
			}
			joined := len(client.rooms)
			h.mu.Unlock()
			h.log.Debug("client connected", zap.String("user_id", client.UserID), zap.Int("rooms", joined))

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, client := range h.clients {
				h.removeLocked(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	for room := range client.rooms {
		if members := h.rooms[room]; members != nil {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	close(client.Send)
}

func (h *Hub) joinLocked(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

// Join adds a registered client to room.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; ok {
		h.joinLocked(client, room)
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// deliver writes to one client while it is still registered; Send is closed
// only under the write lock.
func (h *Hub) deliver(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.clients[client.ID] != client {
		return false
	}
	client.trySend(data)
	return true
}

func (h *Hub) Broadcast(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.trySend(data)
	}
}

func (h *Hub) SendToRoom(room string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		client.trySend(data)
	}
}

// Publish implements notify.Publisher for this process's clients.
func (h *Hub) Publish(_ context.Context, evt notify.Event) error {
	msg := &Message{Event: string(evt.Kind), Data: evt.Payload}
	if evt.Room == "" {
		h.Broadcast(msg)
	} else {
		h.SendToRoom(evt.Room, msg)
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
