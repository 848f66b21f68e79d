package ratelimit

import (
	"log/slog"
	"net/http"

	"loveletter/internal/httputil"
)

// Message is the user-facing text for a rejected request.
const Message = "You're writing love letters faster than we can deliver them. Please wait a minute and try again."

// Middleware rejects requests over quota with 429. A nil limiter lets everything through.
// The key is httputil.ClientIP, so forwarding headers only count from trusted proxies.
// onLimit writes the rejection body; nil writes {"error": Message}.
func Middleware(l Limiter, trusted *httputil.TrustedProxies, log *slog.Logger, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, r *http.Request) {
			httputil.FailJSON(log, w, Message, nil, http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := httputil.ClientIP(r, trusted)
			if !l.Allow(r.Context(), ip) {
				log.Warn("rate limited", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
