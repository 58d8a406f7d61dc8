package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"sync"
	"time"

	"zapas-be/internal/apperror"
	"zapas-be/internal/utils"

	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Login / register (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// Frontend-heavy apps
	limitFrontend = rate.Limit(20)
	burstFrontend = 40

	// Internal / trusted services
	limitInternal = rate.Limit(100)
	burstInternal = 200
)

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	internalKey string
	strictPaths map[string]bool
	now         func() time.Time
}

// NewRateLimiter starts a cleanup goroutine that runs until ctx is done.
func NewRateLimiter(ctx context.Context, internalKey string, strictPaths ...string) *RateLimiter {
	rl := &RateLimiter{
		visitors:    make(map[string]*visitor),
		internalKey: internalKey,
		strictPaths: make(map[string]bool, len(strictPaths)),
		now:         time.Now,
	}
	for _, p := range strictPaths {
		rl.strictPaths[p] = true
	}

	go rl.cleanupLoop(ctx)
	return rl
}

// getVisitor retrieves or creates a rate limiter for the given key.
func (rl *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		rl.visitors[key] = &visitor{limiter, rl.now()}
		return limiter
	}

	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup removes visitors idle for longer than visitorTTL.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware rejects requests over the caller's quota with the standard
// 429 error envelope.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := rl.resolveRateTier(r)

		// Separate quotas per tier for the same identity, e.g. "user:<id>:strict".
		key := identity(r, tier) + ":" + tier

		if !rl.getVisitor(key, limit, burst).Allow() {
			w.Header().Set("Retry-After", "1")
			apperror.Write(w, r, apperror.TooManyRequests())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// identity keys the bucket. X-Device-ID is client supplied, so the strict
// tier ignores it and falls back to the remote address.
func identity(r *http.Request, tier string) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return "user:" + userID
	}
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" && tier != "strict" {
		return "device:" + deviceID
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// resolveRateTier determines which rate limit policy applies to the request.
func (rl *RateLimiter) resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if rl.internalKey != "" &&
		subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Service-Auth")), []byte(rl.internalKey)) == 1 {
		return limitInternal, burstInternal, "internal"
	}

	if rl.strictPaths[r.URL.Path] || r.Header.Get("X-Action") == "auth" {
		return limitStrict, burstStrict, "strict"
	}

	if r.Header.Get("X-Client-Type") == "frontend-heavy" {
		return limitFrontend, burstFrontend, "frontend"
	}

	return limitGeneral, burstGeneral, "general"
}
