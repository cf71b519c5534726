package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"polyglot/internal/httputil"
)

// idleLimiterTTL is how long an owner's limiter survives without requests
const idleLimiterTTL = 10 * time.Minute

type ownerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-owner token bucket for expensive routes
type RateLimiter struct {
	perMinute int
	limiters  map[string]*ownerLimiter
	mu        sync.Mutex
	now       func() time.Time
	logger    *slog.Logger
}

// NewRateLimiter allows perMinute requests per owner with a burst of the same size.
// perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		limiters:  make(map[string]*ownerLimiter),
		now:       time.Now,
		logger:    logger,
	}
}

// Allow reports whether owner may make a request now
func (l *RateLimiter) Allow(owner string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, v := range l.limiters {
		if now.Sub(v.lastSeen) > idleLimiterTTL {
			delete(l.limiters, k)
		}
	}

	ol, ok := l.limiters[owner]
	if !ok {
		ol = &ownerLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
		}
		l.limiters[owner] = ol
	}
	ol.lastSeen = now

	return ol.limiter.AllowN(now, 1)
}

// Wrap limits next by the request's settings owner
func (l *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	if l.perMinute <= 0 {
		return next
	}
	retryAfter := int(math.Ceil(60 / float64(l.perMinute)))

	return func(w http.ResponseWriter, r *http.Request) {
		owner := httputil.GetOwnerID(r)
		if !l.Allow(owner) {
			l.logger.Info("rate limit exceeded", "owner_id", owner, "path", r.URL.Path)
			w.Header().Set("Retry-After", fmt.Sprint(retryAfter))
			httputil.RespondError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Too many conversions. Limit is %d per minute.", l.perMinute))
			return
		}
		next(w, r)
	}
}
