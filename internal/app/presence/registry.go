/*
Package presence tracks which authenticated user owns which live connection.

The Registry is the single source of truth for "who is online, on which
connection". A user is bound to at most one connection and a connection to at
most one user; bindings live only in memory for the lifetime of the process.
*/
package presence

import (
	"sync"

	"github.com/rs/zerolog"

	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/metrics"
)

// Registry is the bidirectional connectionID <-> userID map.
type Registry struct {
	// mu guards both directions so that eviction and installation are one step.
	mu sync.RWMutex

	// userByConn maps a connection id to the user bound on it.
	userByConn map[string]string

	// connByUser maps a user id to the connection that user is bound on.
	connByUser map[string]string

	logger zerolog.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		userByConn: make(map[string]string),
		connByUser: make(map[string]string),
		logger:     logx.Component("registry"),
	}
}

// Bind installs connID <-> userID, first evicting any binding held by either side.
//
// Eviction order: the previous user of connID loses its reverse mapping, then the
// previous connection of userID loses its forward mapping, then the new pair is
// installed. When userID was bound on another connection, that connection id is
// returned as evicted.
func (r *Registry) Bind(connID, userID string) (evicted string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prevUser, ok := r.userByConn[connID]; ok && prevUser != userID {
		delete(r.connByUser, prevUser)
	}

	if prevConn, ok := r.connByUser[userID]; ok && prevConn != connID {
		delete(r.userByConn, prevConn)
		evicted = prevConn
	}

	r.userByConn[connID] = userID
	r.connByUser[userID] = connID
	metrics.OnlineUsers.Set(float64(len(r.connByUser)))

	if evicted != "" {
		r.logger.Info().
			Str("user_id", userID).
			Str("connection_id", connID).
			Str("evicted_connection_id", evicted).
			Msg("User rebound to a new connection, previous binding evicted.")
	}

	return evicted
}

// Unbind removes the binding of connID in both directions and returns the user
// that was bound. It is a no-op when connID is not bound.
func (r *Registry) Unbind(connID string) (userID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok = r.userByConn[connID]
	if !ok {
		return "", false
	}

	delete(r.userByConn, connID)
	if r.connByUser[userID] == connID {
		delete(r.connByUser, userID)
	}
	metrics.OnlineUsers.Set(float64(len(r.connByUser)))

	return userID, true
}

// UserOf returns the user bound on connID.
func (r *Registry) UserOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.userByConn[connID]
	return userID, ok
}

// ConnectionOf returns the connection userID is bound on.
func (r *Registry) ConnectionOf(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.connByUser[userID]
	return connID, ok
}

// Online returns the number of bound users.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connByUser)
}
