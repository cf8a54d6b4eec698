package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/arthub/backend/internal/metrics"
)

// Hub maintains the set of active clients and fans events out to them
type Hub struct {
	// Registered clients by user ID for targeted messaging
	clients map[string]map[*Client]struct{}

	// All clients for broadcasting
	allClients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	unicast    chan *UnicastMessage

	mu  sync.RWMutex
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a hub; call Run in a goroutine to start it
func NewHub(log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		allClients: make(map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *Message, 256),
		unicast:    make(chan *UnicastMessage, 256),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run is the hub's main event loop
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastMessage(message)
		case um := <-h.unicast:
			h.sendToUser(um.UserID, um.Message)
		}
	}
}

// Shutdown stops the loop and disconnects every client
func (h *Hub) Shutdown() {
	h.cancel()
	<-h.done
}

// Register queues a client for registration
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister queues a client for removal
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Broadcast queues a message for every connected client
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.ctx.Done():
	}
}

// SendToUser queues a message for one user's connections
func (h *Hub) SendToUser(userID string, message *Message) {
	select {
	case h.unicast <- &UnicastMessage{UserID: userID, Message: message}:
	case <-h.ctx.Done():
	}
}

// ActiveConnections reports the number of connected clients
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}
	h.allClients[client] = struct{}{}

	metrics.Get().WebsocketConnections.Set(float64(len(h.allClients)))
	h.log.Info("websocket client connected",
		zap.String("user_id", client.UserID),
		zap.Int("active", len(h.allClients)),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	delete(h.allClients, client)
	if conns, ok := h.clients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.send)

	metrics.Get().WebsocketConnections.Set(float64(len(h.allClients)))
	h.log.Info("websocket client disconnected",
		zap.String("user_id", client.UserID),
		zap.Int("active", len(h.allClients)),
	)
}

func (h *Hub) broadcastMessage(message *Message) {
	data := message.Encode()
	if data == nil {
		return
	}
	metrics.Get().WebsocketMessages.WithLabelValues(string(message.Type)).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.allClients {
		select {
		case client.send <- data:
		default:
			// Slow consumer: drop the message rather than block the hub
			h.log.Warn("dropping message to slow client", zap.String("user_id", client.UserID))
		}
	}
}

func (h *Hub) sendToUser(userID string, message *Message) {
	data := message.Encode()
	if data == nil {
		return
	}
	metrics.Get().WebsocketMessages.WithLabelValues(string(message.Type)).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
			h.log.Warn("dropping message to slow client", zap.String("user_id", userID))
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.allClients {
		close(client.send)
		client.closeConn()
	}
	h.allClients = make(map[*Client]struct{})
	h.clients = make(map[string]map[*Client]struct{})
}
