package middlewares

import (
	"carelink-service/internal/app/services/shared/ratelimiter"
	"carelink-service/internal/pkg/constvars"
	"carelink-service/internal/pkg/exceptions"
	"carelink-service/internal/pkg/utils"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket per client address. A client that drains its
// bucket is blocked for blockTime.
type RateLimiter struct {
	log       *zap.Logger
	visitors  map[string]*visitor
	blocked   map[string]time.Time
	mu        sync.Mutex
	requests  int
	per       time.Duration
	blockTime time.Duration
	lastPrune time.Time
	clock     func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter refills one token every per, up to requests tokens.
func NewRateLimiter(logger *zap.Logger, requests int, per, blockTime time.Duration) *RateLimiter {
	return &RateLimiter{
		log:       logger,
		visitors:  make(map[string]*visitor),
		blocked:   make(map[string]time.Time),
		requests:  requests,
		per:       per,
		blockTime: blockTime,
		clock:     time.Now,
	}
}

func (rl *RateLimiter) allow(key string) (bool, int) {
	now := rl.clock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.pruneLocked(now)

	if blockedUntil, found := rl.blocked[key]; found {
		if now.Before(blockedUntil) {
			return false, ceilSeconds(blockedUntil.Sub(now))
		}
		delete(rl.blocked, key)
	}

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(rl.per), rl.requests)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	if !v.limiter.AllowN(now, 1) {
		rl.blocked[key] = now.Add(rl.blockTime)
		return false, ceilSeconds(rl.blockTime)
	}
	return true, 0
}

// pruneLocked drops visitors idle long enough for their bucket to refill.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	idle := rl.per * time.Duration(rl.requests)
	if idle < rl.blockTime {
		idle = rl.blockTime
	}
	if now.Sub(rl.lastPrune) < idle {
		return
	}
	rl.lastPrune = now

	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= idle {
			delete(rl.visitors, key)
		}
	}
	for key, until := range rl.blocked {
		if !now.Before(until) {
			delete(rl.blocked, key)
		}
	}
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientIPFromRequest(r)

		allowed, retryAfter := rl.allow(clientIP)
		if !allowed {
			rl.log.Warn("Verification throttled",
				zap.String(constvars.LoggingRequestIDKey, utils.GetRequestIDFromContext(r.Context())),
				zap.String(constvars.LoggingClientIPKey, clientIP),
				zap.Int(constvars.LoggingRetryAfterKey, retryAfter),
			)
			utils.BuildAuthErrorResponse(rl.log, w, exceptions.ErrRateLimitExceeded(nil, clientIP), retryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IssuanceRateLimit caps magic link requests per client address in a fixed window.
func (m *Middlewares) IssuanceRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientIPFromRequest(r)

		result := m.IssuanceLimiter.Apply(&ratelimiter.ApplyLimiterInput{Key: clientIP})
		if !result.Allowed {
			m.Log.Warn("Magic link issuance rate limited",
				zap.String(constvars.LoggingRequestIDKey, utils.GetRequestIDFromContext(r.Context())),
				zap.String(constvars.LoggingClientIPKey, clientIP),
				zap.Int(constvars.LoggingRetryAfterKey, result.RetryAfterSecs),
			)
			utils.BuildAuthErrorResponse(m.Log, w, exceptions.ErrRateLimitExceeded(nil, clientIP), result.RetryAfterSecs)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// FloodGuard caps all requests per client address. It keys on the address
// resolved by ClientIPMiddleware so clients behind a trusted proxy get their
// own counters.
func (m *Middlewares) FloodGuard(requests int, window time.Duration) func(http.Handler) http.Handler {
	retryAfter := ceilSeconds(window)
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return clientIPFromRequest(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIPFromRequest(r)
			m.Log.Warn("Request flood limited",
				zap.String(constvars.LoggingRequestIDKey, utils.GetRequestIDFromContext(r.Context())),
				zap.String(constvars.LoggingClientIPKey, clientIP),
			)
			utils.BuildAuthErrorResponse(m.Log, w, exceptions.ErrRateLimitExceeded(nil, clientIP), retryAfter)
		}),
	)
}

func clientIPFromRequest(r *http.Request) string {
	if clientIP := utils.GetClientIPFromContext(r.Context()); clientIP != "" {
		return clientIP
	}
	return utils.GetRemoteIP(r)
}

func ceilSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
