package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/simp-lee/sitesapi/internal/pkg"
)

// MsgTooManyRequests is the error body of a rate-limited response.
const MsgTooManyRequests = "too many requests"

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	// RPS is the sustained number of requests per second per client IP.
	RPS float64
	// Burst is the bucket size.
	Burst int
	// IdleTTL is how long an untouched client bucket is kept. Zero means
	// ten minutes.
	IdleTTL time.Duration
	// Logger receives a warning for each rejected request. Nil means
	// slog.Default().
	Logger *slog.Logger
}

const defaultLimiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore hands out one token bucket per client key and forgets
// buckets that have been idle longer than ttl.
type limiterStore struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(limit rate.Limit, burst int, ttl time.Duration) *limiterStore {
	if ttl <= 0 {
		ttl = defaultLimiterIdleTTL
	}
	return &limiterStore{
		clients: make(map[string]*clientLimiter),
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > s.ttl {
		for k, cl := range s.clients {
			if now.Sub(cl.lastSeen) > s.ttl {
				delete(s.clients, k)
			}
		}
		s.lastSweep = now
	}

	cl, ok := s.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RateLimit returns a gin middleware that limits each client IP to cfg.RPS
// requests per second with bursts of cfg.Burst. Rejected requests get 429
// with {"error":"too many requests"} and a Retry-After header.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return rateLimit(cfg, newLimiterStore(rate.Limit(cfg.RPS), cfg.Burst, cfg.IdleTTL))
}

func rateLimit(cfg RateLimitConfig, store *limiterStore) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if store.allow(ip) {
			c.Next()
			return
		}

		logger.WarnContext(c.Request.Context(), "rate limit exceeded",
			slog.String("client_ip", ip),
			slog.String("path", c.Request.URL.Path),
		)
		c.Header("Retry-After", "1")
		pkg.Abort(c, http.StatusTooManyRequests, MsgTooManyRequests)
	}
}
