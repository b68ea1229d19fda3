// Package client implements the Ironhold spectator viewer.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"ironhold/internal/protocol"
)

// Frames carry a compressed 256x256 RGBA image; the default read limit of the
// websocket library is far below that.
const readLimit = 4 << 20

var errNotConnected = errors.New("not connected")

// NetworkClient handles WebSocket communication with the server.
type NetworkClient struct {
	conn     *websocket.Conn
	sendChan chan *protocol.Message
	done     chan struct{}
	mu       sync.Mutex
	log      *logrus.Entry

	// Callbacks, called from the read goroutine.
	OnMessage    func(*protocol.Message)
	OnDisconnect func(error)

	connected bool
}

// NewNetworkClient creates a new network client.
func NewNetworkClient(log *logrus.Entry) *NetworkClient {
	return &NetworkClient{
		sendChan: make(chan *protocol.Message, 64),
		done:     make(chan struct{}),
		log:      log,
	}
}

// websocketURL returns the endpoint for a server address. Addresses with an
// explicit scheme are kept; bare host:port addresses use plain ws.
func websocketURL(serverAddr string) string {
	addr := strings.TrimSuffix(serverAddr, "/")
	switch {
	case strings.HasPrefix(addr, "wss://"), strings.HasPrefix(addr, "ws://"):
	case strings.HasPrefix(addr, "https://"):
		addr = "wss://" + strings.TrimPrefix(addr, "https://")
	case strings.HasPrefix(addr, "http://"):
		addr = "ws://" + strings.TrimPrefix(addr, "http://")
	default:
		addr = "ws://" + addr
	}
	if !strings.HasSuffix(addr, "/ws") {
		addr += "/ws"
	}
	return addr
}

// Connect establishes a connection to the server.
func (c *NetworkClient) Connect(serverAddr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	url := websocketURL(serverAddr)
	c.log.WithField("url", url).Info("Connecting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(readLimit)

	c.conn = conn
	c.connected = true
	c.done = make(chan struct{})

	go c.readPump(conn, c.done)
	go c.writePump(conn, c.done)
	return nil
}

// Disconnect closes the connection.
func (c *NetworkClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return
	}
	c.connected = false
	close(c.done)
	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "")
		c.conn = nil
	}
}

// IsConnected returns true if connected to server.
func (c *NetworkClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SendPayload creates and queues a message with the given type and payload.
func (c *NetworkClient) SendPayload(msgType protocol.MessageType, payload any) error {
	if !c.IsConnected() {
		return errNotConnected
	}
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case c.sendChan <- msg:
	default:
		c.log.WithField("type", msgType).Warn("Send channel full, dropping message")
	}
	return nil
}

func (c *NetworkClient) readPump(conn *websocket.Conn, done chan struct{}) {
	var readErr error
	defer func() {
		c.mu.Lock()
		wasConnected := c.connected && c.done == done
		if wasConnected {
			c.connected = false
			close(c.done)
			c.conn = nil
		}
		c.mu.Unlock()

		if wasConnected && c.OnDisconnect != nil {
			c.OnDisconnect(readErr)
		}
	}()

	for {
		msgType, data, err := conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				readErr = err
				c.log.WithError(err).Warn("WebSocket read error")
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.WithError(err).Warn("Failed to unmarshal message")
			continue
		}
		if c.OnMessage != nil {
			c.OnMessage(&msg)
		}
	}
}

func (c *NetworkClient) writePump(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case msg := <-c.sendChan:
			data, err := json.Marshal(msg)
			if err != nil {
				c.log.WithError(err).Error("Failed to marshal message")
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.log.WithError(err).Warn("WebSocket write error")
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
