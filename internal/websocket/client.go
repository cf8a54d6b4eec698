package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings with this period; the peer must answer within writeWait
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from the peer
	maxMessageSize = 64 * 1024

	sendBufferSize = 256
)

// Client represents a single WebSocket connection
type Client struct {
	conn *websocket.Conn
	hub  *Hub
	log  *zap.Logger

	UserID   string
	Username string

	// Buffered channel of outbound messages
	send chan []byte

	closeOnce sync.Once
}

// NewClient wraps an accepted connection
func NewClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		conn:     conn,
		hub:      hub,
		log:      hub.log,
		UserID:   userID,
		Username: username,
		send:     make(chan []byte, sendBufferSize),
	}
}

// Send queues a message for this client; full buffers drop the message
func (c *Client) Send(message *Message) {
	data := message.Encode()
	if data == nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// WritePump drains the send channel onto the wire and keeps the
// connection alive with pings. Runs in its own goroutine per client.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.closeConn()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// ReadPump consumes inbound frames until the peer disconnects. The
// server pushes events only, so inbound payloads are discarded; reading
// still services control frames and surfaces closure.
func (c *Client) ReadPump(ctx context.Context) {
	defer c.hub.Unregister(c)
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				c.log.Debug("websocket read ended",
					zap.String("user_id", c.UserID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (c *Client) closeConn() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			c.conn.Close(websocket.StatusNormalClosure, "")
		}
	})
}
