/*
Package gateway owns the live WebSocket connections.

This file defines the Client struct, one accepted connection with its read and
write pumps. Inbound frames are handed to a Dispatcher; outbound frames are queued
on a buffered channel and never block the producer.
*/
package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"vcturbo/internal/app/session"
	"vcturbo/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client; SDP offers are large.
	maxMessageSize = 64 << 10

	// sendBuffer is the capacity of the outbound queue of a client.
	sendBuffer = 256
)

// Dispatcher runs the events of a connection.
type Dispatcher interface {
	HandleFrame(ctx context.Context, connID string, raw []byte) *session.Frame
	HandleDisconnect(connID string)
}

// Client is an active WebSocket connection.
type Client struct {
	// ID is the server-assigned connection id.
	ID string

	manager    *Manager
	conn       *websocket.Conn
	dispatcher Dispatcher

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// closeOnce guards the close of send.
	closeOnce sync.Once
	closed    bool
	mu        sync.RWMutex

	logger zerolog.Logger
}

func newClient(id string, m *Manager, conn *websocket.Conn, d Dispatcher) *Client {
	return &Client{
		ID:         id,
		manager:    m,
		conn:       conn,
		dispatcher: d,
		send:       make(chan []byte, sendBuffer),
		logger:     logx.Logger().With().Str("connection_id", id).Logger(),
	}
}

// Push queues a push frame. It reports false when the client is closed or its
// queue is full; the frame is dropped in both cases.
func (c *Client) Push(event string, data any) bool {
	return c.enqueue(session.Push(event, data))
}

func (c *Client) enqueue(frame *session.Frame) bool {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error().Err(err).Str("event", frame.Event).Msg("Error marshaling frame for client")
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- payload:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Str("event", frame.Event).Msg("Client send channel full, dropping frame")
		return false
	}
}

// close stops the write pump. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// ReadPump reads frames until the connection fails, then releases the client.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if reply := c.dispatcher.HandleFrame(context.Background(), c.ID, raw); reply != nil {
			c.enqueue(reply)
		}
	}
}

// cleanupOnDisconnect releases session state, unregisters the client and closes the socket.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	c.dispatcher.HandleDisconnect(c.ID)
	c.manager.unregister(c)
	c.close()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump drains the send queue to the socket and keeps the heartbeat alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued frame. It returns false when the pump must stop.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends the periodic heartbeat ping.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

func deadline() time.Time {
	return time.Now().Add(writeWait)
}
