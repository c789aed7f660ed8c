/*
Package handler provides the HTTP routing setup and handlers of the vcturbo server.

This file defines the main Router, applying logging, CORS, request ids and panic
recovery before delegating to the WebSocket endpoint and the small HTTP API
(health, metrics, Proof-of-Work, profile-picture upload signing).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"vcturbo/internal/pkg/limiter"
	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/metrics"
	"vcturbo/internal/pkg/resp"
)

const (
	ConnectRate  = 0.5
	ConnectBurst = 5
	PresignRate  = 0.1
	PresignBurst = 3
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
func Router(deps *AppDeps) http.Handler {
	if deps.ConnectLimiter == nil {
		deps.ConnectLimiter = limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)
	}
	if deps.PresignLimiter == nil {
		deps.PresignLimiter = limiter.NewIPRateLimiter(rate.Limit(PresignRate), PresignBurst)
	}

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-PoW-Token"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, map[string]any{
			"status":      "ok",
			"service":     "vcturbo",
			"connections": deps.Gateway.Count(),
			"online":      deps.Registry.Online(),
			"waiting":     deps.Session.Waiting(),
		})
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		if deps.PoW.Enabled() {
			api.Get("/pow/challenge", HandlePowChallenge(deps))
			api.Post("/pow/verify", HandlePowVerify(deps))
		}

		if deps.StorageService != nil {
			api.With(deps.PresignLimiter.Middleware).
				Post("/upload/profile-pic/presign", HandlePresignProfilePic(deps))
		}
	})

	r.With(deps.ConnectLimiter.Middleware).Get("/ws", HandleWebSocket(deps, wsUpgrader))

	return r
}
