package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"jobcoordinator/internal/store"
	"jobcoordinator/pkg/api"

	"golang.org/x/time/rate"
)

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

// RateLimiter enforces a per-tenant token bucket, built lazily from
// Tenant.RateLimit/RateLimitBurst and cached for a TTL so idle tenants
// don't pin a limiter in memory forever.
type RateLimiter struct {
	ttl      time.Duration
	limiters sync.Map // uuid.UUID -> *cachedLimiter
}

// RateLimiterOption configures a RateLimiter built by NewRateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithTTL overrides the default 5 minute limiter cache TTL.
func WithTTL(ttl time.Duration) RateLimiterOption {
	return func(r *RateLimiter) { r.ttl = ttl }
}

// NewRateLimiter builds a RateLimiter.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	r := &RateLimiter{ttl: 5 * time.Minute}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Middleware rejects requests over the calling tenant's rate limit. It must
// run after AuthMiddleware, which is what populates the tenant in context;
// a request with no tenant is rejected as unauthorized rather than
// unlimited.
func (r *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			tenant, ok := TenantFromContext(req.Context())
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(api.ErrorResponse{
					Error: "Unauthorized",
					Code:  "401",
				})
				return
			}

			// RateLimit=0 means unlimited.
			if tenant.RateLimit > 0 {
				limiter := r.limiterFor(tenant)
				if !limiter.Allow() {
					w.Header().Set("Retry-After", "1")
					http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *RateLimiter) limiterFor(tenant *store.Tenant) *rate.Limiter {
	if v, ok := r.limiters.Load(tenant.ID); ok {
		cached := v.(*cachedLimiter)
		if time.Now().Before(cached.expiresAt) {
			return cached.limiter
		}
		// expired, fall through and replace it
	}

	limiter := rate.NewLimiter(rate.Limit(tenant.RateLimit), tenant.RateLimitBurst)
	r.limiters.Store(tenant.ID, &cachedLimiter{
		limiter:   limiter,
		expiresAt: time.Now().Add(r.ttl),
	})
	return limiter
}
