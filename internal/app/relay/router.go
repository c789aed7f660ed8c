/*
Package relay delivers server-initiated events to live connections.

Delivery is at-most-once and fire-and-forget: an offline target or a full
outbound queue drops the event silently. Nothing is queued for later.
*/
package relay

import (
	"vcturbo/internal/pkg/metrics"
)

// Peer is a live connection able to accept an outbound event without blocking.
type Peer interface {
	// Push queues event for delivery and reports whether it was accepted.
	Push(event string, data any) bool
}

// Directory resolves connection ids to live peers.
type Directory interface {
	Lookup(connID string) (Peer, bool)
}

// Presence resolves user ids to the connection they are bound on.
type Presence interface {
	ConnectionOf(userID string) (string, bool)
}

// Router relays events by user id or by raw connection id.
type Router struct {
	presence  Presence
	directory Directory
}

// NewRouter returns a Router over the given presence and connection directory.
func NewRouter(presence Presence, directory Directory) *Router {
	return &Router{presence: presence, directory: directory}
}

// Deliver pushes event to the connection bound to userID. It reports whether the
// event was queued; false means the user is offline or the queue was full.
func (r *Router) Deliver(userID, event string, data any) bool {
	connID, ok := r.presence.ConnectionOf(userID)
	if !ok {
		metrics.RelayTotal.WithLabelValues(event, metrics.OutcomeOffline).Inc()
		return false
	}
	return r.DeliverToConn(connID, event, data)
}

// DeliverToConn pushes event to connID. Used by the anonymous matchmaking path,
// where peers have no identity.
func (r *Router) DeliverToConn(connID, event string, data any) bool {
	peer, ok := r.directory.Lookup(connID)
	if !ok {
		metrics.RelayTotal.WithLabelValues(event, metrics.OutcomeOffline).Inc()
		return false
	}

	if !peer.Push(event, data) {
		metrics.RelayTotal.WithLabelValues(event, metrics.OutcomeDropped).Inc()
		return false
	}

	metrics.RelayTotal.WithLabelValues(event, metrics.OutcomeDelivered).Inc()
	return true
}
