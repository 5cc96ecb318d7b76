package middleware

import (
	"context"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = time.Minute
	limiterIdleTTL       = 3 * time.Minute
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	RequestsPerMin int
	Burst          int
	// TrustedProxies lists peer IPs whose X-Forwarded-For / X-Real-IP
	// headers are believed. Empty means the TCP peer address is always used.
	TrustedProxies []string
}

// RateLimitWithConfig throttles each client IP to cfg.RequestsPerMin with
// cfg.Burst. Idle client buckets are swept every minute until ctx is
// cancelled. Rejected requests get 429 with a plain-text TOO_MANY_REQUESTS
// body.
func RateLimitWithConfig(ctx context.Context, cfg RateLimitConfig) func(http.Handler) http.Handler {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	clients := make(map[string]*client)
	every := rate.Limit(float64(cfg.RequestsPerMin) / 60.0)

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				mu.Lock()
				for ip, c := range clients {
					if now.Sub(c.lastSeen) > limiterIdleTTL {
						delete(clients, ip)
					}
				}
				mu.Unlock()
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, cfg.TrustedProxies)

			mu.Lock()
			c, ok := clients[ip]
			if !ok {
				c = &client{limiter: rate.NewLimiter(every, cfg.Burst)}
				clients[ip] = c
			}
			c.lastSeen = time.Now()
			mu.Unlock()

			if !c.limiter.Allow() {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "TOO_MANY_REQUESTS", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the peer address of r, or the first forwarded address
// when the peer is a trusted proxy.
func clientIP(r *http.Request, trustedProxies []string) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !slices.Contains(trustedProxies, peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}
