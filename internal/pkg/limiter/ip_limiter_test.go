package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"vcturbo/internal/pkg/logx"
)

func init() {
	logx.Discard()
}

func TestMiddlewareRejectsOverBurst(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 2)
	defer l.Stop()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/ws", nil)
		r.RemoteAddr = "198.51.100.4:1234"
		h.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/ws", nil)
	r.RemoteAddr = "198.51.100.5:1234"
	h.ServeHTTP(other, r)
	assert.Equal(t, http.StatusNoContent, other.Code)
}

func TestEvictIdle(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	defer l.Stop()

	l.GetLimiter("a").Allow()
	l.GetLimiter("b")

	removed := l.evictIdle(time.Now())
	assert.Equal(t, 1, removed)

	removed = l.evictIdle(time.Now().Add(time.Minute))
	assert.Equal(t, 1, removed)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.1:999"
	assert.Equal(t, "203.0.113.1", ClientIP(r))

	r.RemoteAddr = ""
	assert.Equal(t, "unknown_ip", ClientIP(r))
}
