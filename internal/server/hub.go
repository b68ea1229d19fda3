package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"ironhold/internal/protocol"
)

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	server *Server

	// Registered clients
	clients map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Inbound messages from clients
	inbound chan *ClientMessage

	mu sync.RWMutex
}

// ClientMessage wraps a message with its source client.
type ClientMessage struct {
	Client  *Client
	Message *protocol.Message
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates a new Hub.
func NewHub(server *Server) *Hub {
	return &Hub{
		server:     server,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
		inbound:    make(chan *ClientMessage, 256),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

			h.sendWelcome(client)

		case client := <-h.unregister:
			h.handleDisconnect(client)

		case msg := <-h.inbound:
			// Commands wait for the next tick, so they must not block the hub
			go h.handleMessage(ctx, msg)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Receive queues a message from a client for handling.
func (h *Hub) Receive(client *Client, msg *protocol.Message) {
	h.inbound <- &ClientMessage{Client: client, Message: msg}
}

// BroadcastMessage sends msg to every authenticated client.
func (h *Hub) BroadcastMessage(msg *protocol.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.SpectatorID != "" {
			client.Send(msg)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) sendWelcome(client *Client) {
	msg, _ := protocol.NewMessage(protocol.TypeWelcome, protocol.WelcomePayload{
		ServerVersion: Version,
	})
	client.Send(msg)
}

func (h *Hub) handleDisconnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.close()

	if client.SpectatorID != "" {
		h.server.log.WithFields(logrus.Fields{
			"spectator": client.SpectatorID,
			"name":      client.Name,
		}).Info("Spectator disconnected")
	}
}

func (h *Hub) handleMessage(ctx context.Context, cm *ClientMessage) {
	handlers := NewHandlers(h)
	handlers.Handle(ctx, cm.Client, cm.Message)
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *protocol.Message

	// limiter throttles commands; frames and events are not limited.
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool

	SpectatorID string
	Name        string
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536

	commandRate  = 20
	commandBurst = 40
)

// NewClient creates a new client. conn may be nil for clients fed directly
// through the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan *protocol.Message, 256),
		limiter: rate.NewLimiter(commandRate, commandBurst),
	}
}

// Send queues a message to be sent to the client.
func (c *Client) Send(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		// Channel full, client too slow
		go c.hub.Unregister(c)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump pumps messages from the WebSocket to the hub.
func (c *Client) ReadPump() {
	log := c.hub.server.log
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Warn("WebSocket error")
			}
			break
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithError(err).Debug("Invalid message")
			continue
		}

		c.hub.Receive(c, &msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.hub.server.log.WithError(err).Error("Failed to marshal message")
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
