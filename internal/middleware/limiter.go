package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"bookheaven-be/internal/auth"

	"golang.org/x/time/rate"
)

// Rate limit tiers
const (
	// Login and other credential endpoints
	limitStrict = rate.Limit(2)
	burstStrict = 5

	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// Trusted services presenting X-Service-Auth
	limitInternal = rate.Limit(100)
	burstInternal = 200
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per identity and tier.
type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	internalKey string
	strictPaths map[string]bool
}

// NewRateLimiter returns a limiter. Requests to strictPaths use the strict
// tier; internalKey, when set, unlocks the internal tier.
func NewRateLimiter(internalKey string, strictPaths ...string) *RateLimiter {
	l := &RateLimiter{
		visitors:    make(map[string]*visitor),
		internalKey: internalKey,
		strictPaths: make(map[string]bool, len(strictPaths)),
	}
	for _, p := range strictPaths {
		l.strictPaths[p] = true
	}
	return l
}

func (l *RateLimiter) get(key string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r, b)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops buckets idle for longer than idle, every interval, until ctx ends.
func (l *RateLimiter) Cleanup(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.sweep(idle)
		}
	}
}

func (l *RateLimiter) sweep(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if time.Since(v.lastSeen) > idle {
			delete(l.visitors, key)
		}
	}
}

// Middleware must run after AuthMiddleware so authenticated callers are
// keyed by account rather than address.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := l.tier(r)

		var identity string
		if a, ok := auth.ActorFromContext(r.Context()); ok {
			identity = "user:" + a.UserID.String()
		} else if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
			identity = "device:" + deviceID
		} else {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			identity = "ip:" + ip
		}

		if !l.get(fmt.Sprintf("%s:%s", identity, tier), limit, burst).Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) tier(r *http.Request) (rate.Limit, int, string) {
	if l.internalKey != "" && r.Header.Get("X-Service-Auth") == l.internalKey {
		return limitInternal, burstInternal, "internal"
	}
	if l.strictPaths[r.URL.Path] {
		return limitStrict, burstStrict, "strict"
	}
	return limitGeneral, burstGeneral, "general"
}
