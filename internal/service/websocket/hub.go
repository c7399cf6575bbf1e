package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"horsecounter/internal/logger"
	"horsecounter/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	broadcastBuffer = 64
	writeWait       = 5 * time.Second
)

// Client is the subset of a websocket connection the hub writes to.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// FeedMessage is what viewers receive for every recorded entry.
type FeedMessage struct {
	Type  string              `json:"type"`
	Entry *model.HistoryEntry `json:"entry"`
}

// HubService fans new history entries out to connected viewers.
type HubService struct {
	clients    map[Client]bool
	broadcast  chan []byte
	register   chan Client
	unregister chan Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHubService creates a hub; call Run to start delivering messages.
func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan Client),
		unregister: make(chan Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run delivers messages until ctx is cancelled, then closes every client.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Feed client connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Feed client disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending feed message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a client to the hub. Once the hub has stopped the client is
// closed instead.
func (h *HubService) Register(client Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes and closes a client.
func (h *HubService) Unregister(client Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// Broadcast queues a raw message; it is dropped when the queue is full.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("Feed queue full, dropping message")
		return false
	}
}

// Publish sends a recorded entry to every viewer.
func (h *HubService) Publish(entry *model.HistoryEntry) {
	data, err := json.Marshal(FeedMessage{Type: "entry", Entry: entry})
	if err != nil {
		h.logger.Error("Failed to encode feed message: %v", err)
		return
	}
	h.Broadcast(data)
}

// GetClientCount returns the number of connected viewers.
func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
