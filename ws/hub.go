package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vnkhanh/koru-backend/logger"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

// History change types, matching the table operations that produce them.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// HistoryEvent tells a user's open tabs that their history changed.
type HistoryEvent struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Query string `json:"query,omitempty"`
}

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub tracks open connections per user.
type Hub struct {
	clients map[string]map[*websocket.Conn]*Client
	mu      sync.RWMutex
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*Client),
		log:     log.With("component", "ws.Hub"),
	}
}

// Register adds conn for userID and starts its writer.
func (h *Hub) Register(userID string, conn *websocket.Conn) *Client {
	client := &Client{Conn: conn, Send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*websocket.Conn]*Client)
	}
	h.clients[userID][conn] = client
	h.mu.Unlock()

	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[userID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Stats counts connected users and their open sockets.
func (h *Hub) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := 0
	for _, clients := range h.clients {
		conns += len(clients)
	}
	return map[string]int{"users": len(h.clients), "connections": conns}
}

// Broadcast queues data for every connection of userID. Slow clients drop
// messages instead of blocking the caller.
func (h *Hub) Broadcast(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			h.log.Warn("ws send buffer full, dropping message", "user_id", userID)
		}
	}
}

func (h *Hub) PublishHistory(userID string, ev HistoryEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal history event", "error", err)
		return
	}
	h.Broadcast(userID, data)
}

func (h *Hub) writePump(client *Client) {
	defer func() {
		_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		_ = client.Conn.Close()
	}()
	for msg := range client.Send {
		_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
