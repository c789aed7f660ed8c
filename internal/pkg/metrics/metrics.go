/*
Package metrics exposes Prometheus instruments for presence, relay and matchmaking.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vcturbo"

// Relay outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeOffline   = "offline"
	OutcomeDropped   = "dropped"
)

var (
	// Connections is the number of open transport connections.
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Open WebSocket connections.",
	})

	// OnlineUsers is the number of bound user identities.
	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online_users",
		Help:      "Users currently bound to a connection.",
	})

	// MatchmakingWaiting is the current matchmaking queue length.
	MatchmakingWaiting = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "matchmaking_waiting",
		Help:      "Anonymous connections waiting for a match.",
	})

	// MatchesTotal counts pairings made by the matchmaking queue.
	MatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_total",
		Help:      "Pairs formed by the matchmaking queue.",
	})

	// RelayTotal counts relay attempts by event and outcome.
	RelayTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_total",
		Help:      "Relay attempts by event and outcome.",
	}, []string{"event", "outcome"})

	// EventsTotal counts inbound events by name and result.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Inbound connection events by name and result.",
	}, []string{"event", "result"})
)

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
