package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit returns middleware that applies per-client token-bucket rate
// limiting. Each unique client IP gets its own limiter allowing rps
// requests per second with the given burst. Idle client entries are pruned
// opportunistically as requests arrive.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	type entry struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu        sync.Mutex
		clients   = make(map[string]*entry)
		lastPrune time.Time
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractClientIP(r)
			now := time.Now()

			mu.Lock()
			// Prune idle entries opportunistically so no background
			// goroutine is needed.
			if now.Sub(lastPrune) > time.Minute {
				for ip, e := range clients {
					if now.Sub(e.lastSeen) > 3*time.Minute {
						delete(clients, ip)
					}
				}
				lastPrune = now
			}
			e, ok := clients[clientIP]
			if !ok {
				e = &entry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
				clients[clientIP] = e
			}
			e.lastSeen = now
			mu.Unlock()

			if !e.limiter.Allow() {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractClientIP attempts to determine the real client IP from standard
// proxy headers, falling back to the direct remote address.
func extractClientIP(r *http.Request) string {
	// Check X-Forwarded-For first (may contain multiple IPs).
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
