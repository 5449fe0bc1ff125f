package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

// clientTTL is how long an idle client's bucket is kept.
const clientTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per client address.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*clientBucket
	lastPrune time.Time
	now       func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter from settings.
// Returns nil if rate limiting is disabled.
func NewRateLimiter(cfg domain.RateLimitSettings) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:     rate.Limit(cfg.RequestsPerSecond),
		burst:     burst,
		clients:   make(map[string]*clientBucket),
		lastPrune: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether the client behind r may make a request now.
func (l *RateLimiter) Allow(r *http.Request) bool {
	ip := clientIP(r)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)

	b, ok := l.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// pruneLocked drops idle clients (caller must hold lock).
func (l *RateLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < time.Minute {
		return
	}
	l.lastPrune = now
	for ip, b := range l.clients {
		if now.Sub(b.lastSeen) > clientTTL {
			delete(l.clients, ip)
		}
	}
}

// clientIP returns the remote host. Forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
