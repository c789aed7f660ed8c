package handler

import (
	"vcturbo/internal/app/gateway"
	"vcturbo/internal/app/presence"
	"vcturbo/internal/app/session"
	"vcturbo/internal/app/storage"
	"vcturbo/internal/configs"
	"vcturbo/internal/pkg/limiter"
	"vcturbo/internal/pkg/pow"
)

// AppDeps carries everything the HTTP layer needs.
type AppDeps struct {
	Config   *configs.AppConfig
	Gateway  *gateway.Manager
	Session  *session.Service
	Registry *presence.Registry

	// StorageService is nil when profile-picture uploads are not configured.
	StorageService storage.StorageService

	// PoW is nil or disabled when the Proof-of-Work gate is off.
	PoW *pow.PoWManager

	// ConnectLimiter and PresignLimiter default to the package rates when nil.
	ConnectLimiter *limiter.IPRateLimiter
	PresignLimiter *limiter.IPRateLimiter
}
