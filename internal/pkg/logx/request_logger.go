/*
Package logx provides a structured logging wrapper based on zerolog.

This file holds the chi middleware that logs every HTTP request (including WebSocket
upgrades on /ws) with status, latency and an anonymised client address.
*/
package logx

import (
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Prefix lengths kept when a client address is written to the request log.
const (
	keepBitsV4 = 24
	keepBitsV6 = 64
)

// anonymizeIP masks a client address (with or without a port) down to its
// network prefix: /24 for IPv4 and /64 for IPv6.
func anonymizeIP(remote string) string {
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return "unknown_ip"
	}
	addr = addr.Unmap().WithZone("")

	if addr.IsLoopback() {
		return "127.0.0.1"
	}

	bits := keepBitsV6
	if addr.Is4() {
		bits = keepBitsV4
	}

	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "unknown_ip"
	}
	return prefix.Addr().String()
}

// RequestLogger returns an HTTP middleware that logs each request once it completes.
// The per-request logger is injected into the request context so handlers can
// retrieve it with zerolog.Ctx.
func RequestLogger() func(next http.Handler) http.Handler {
	baseLogger := Logger()

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())

			anonIP := anonymizeIP(r.RemoteAddr)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("component", "http").
				Str("request_id", requestID).
				Str("remote_ip", anonIP).
				Str("request_method", r.Method).
				Str("request_uri", r.RequestURI).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			t1 := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()

			logEvent := logger.Info()
			if status == http.StatusSwitchingProtocols {
				logEvent = logger.Debug()
			} else if status >= 500 {
				logEvent = logger.Error()
			} else if status >= 400 {
				logEvent = logger.Warn()
			}

			logEvent.
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(t1)).
				Msg("request completed")
		}

		return http.HandlerFunc(fn)
	}
}
