/*
Package gateway owns the live WebSocket connections.

This file defines the Manager, the directory of every open connection keyed by
its server-assigned id. The relay router resolves connection ids through it.
*/
package gateway

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"vcturbo/internal/app/relay"
	"vcturbo/internal/app/session"
	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/metrics"
	"vcturbo/internal/pkg/randx"
)

// ErrShuttingDown is returned by Accept once Shutdown has started.
var ErrShuttingDown = errors.New("gateway: shutting down")

var _ relay.Directory = (*Manager)(nil)

// Manager tracks all open connections.
type Manager struct {
	// clients stores every open Client, keyed by connection id.
	clients map[string]*Client

	// mu protects concurrent access to the clients map.
	mu sync.RWMutex

	// stopped is set by Shutdown; later Accept calls are refused.
	stopped bool

	// wg waits for the read pumps of all clients during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		logger:  logx.Component("gateway"),
	}
}

// Accept registers an upgraded connection, announces its id with a connected
// push, starts its write pump and returns the client. The caller runs ReadPump.
func (m *Manager) Accept(conn *websocket.Conn, d Dispatcher) (*Client, error) {
	id, err := randx.ConnectionID()
	if err != nil {
		return nil, errors.Wrap(err, "generate connection id")
	}

	client := newClient(id, m, conn, d)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, ErrShuttingDown
	}
	m.clients[id] = client
	m.wg.Add(1)
	count := len(m.clients)
	m.mu.Unlock()

	metrics.Connections.Set(float64(count))

	go client.WritePump()
	client.enqueue(session.ConnectedFrame(id))

	m.logger.Info().Str("connection_id", id).Int("connections", count).Msg("Connection accepted.")
	return client, nil
}

// Lookup returns the client with connID as a relay peer.
func (m *Manager) Lookup(connID string) (relay.Peer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[connID]
	if !ok {
		return nil, false
	}
	return client, true
}

// Count returns the number of open connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

func (m *Manager) unregister(c *Client) {
	m.mu.Lock()
	if _, ok := m.clients[c.ID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, c.ID)
	count := len(m.clients)
	m.mu.Unlock()

	metrics.Connections.Set(float64(count))
	m.wg.Done()

	m.logger.Info().Str("connection_id", c.ID).Int("connections", count).Msg("Connection closed.")
}

// Shutdown closes every open connection and waits for their read pumps to finish.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down gateway...")

	m.mu.Lock()
	m.stopped = true
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		if err := c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			deadline(),
		); err != nil {
			m.logger.Debug().Err(err).Str("connection_id", c.ID).Msg("Failed to send close frame.")
		}
		_ = c.conn.Close()
	}

	m.wg.Wait()
	m.logger.Info().Msg("Gateway shutdown complete.")
}
