/*
Package limiter provides rate limiting keyed by client IP address.

It uses the token bucket algorithm (rate.Limiter) per IP and a background goroutine
that evicts idle limiters so the map does not grow without bound.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vcturbo/internal/pkg/errs"
	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/resp"
)

// cleanupInterval is how often idle limiters are evicted.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter implements a rate limiter keyed by client IP address.
type IPRateLimiter struct {
	// mu protects the limits map.
	mu sync.RWMutex

	// limits maps a client IP address to its token bucket.
	limits map[string]*rate.Limiter

	// r is the refill rate in events per second.
	r rate.Limit

	// b is the bucket size.
	b int

	stop   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

// NewIPRateLimiter creates a limiter with rate r and burst b and starts its cleanup goroutine.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
		logger: logx.Component("limiter"),
	}

	go i.cleanUpVisitors()

	return i
}

// GetLimiter returns the limiter for ip, creating it on first use.
// Creation uses double-checked locking so concurrent first requests share one bucket.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// Allow reports whether a request from ip may proceed now.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

// Stop terminates the cleanup goroutine.
func (i *IPRateLimiter) Stop() {
	i.once.Do(func() { close(i.stop) })
}

// cleanUpVisitors evicts limiters whose bucket has refilled completely.
func (i *IPRateLimiter) cleanUpVisitors() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-i.stop:
			return
		case <-ticker.C:
			i.evictIdle(time.Now())
		}
	}
}

func (i *IPRateLimiter) evictIdle(now time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	count := 0
	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			count++
		}
	}

	i.logger.Debug().
		Int("removed", count).
		Int("active", len(i.limits)).
		Msg("Rate limiter cleanup finished.")

	return count
}

// ClientIP returns the host part of r.RemoteAddr, or "unknown_ip".
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}

// Middleware rejects requests over the limit with 429 Too Many Requests.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		if !i.Allow(ip) {
			logx.Warn("Request rejected: rate limit exceeded.", "ip", ip, "path", r.URL.Path)
			resp.RespondError(w, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
