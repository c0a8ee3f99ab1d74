package http

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	apperrors "github.com/ghaythalijarad/entralized-delivery-platform/pkg/util/errorutil"
)

const (
	limiterCacheSize = 10000
	limiterIdleTTL   = 10 * time.Minute
)

// LoginRateLimiter throttles credential endpoints per client IP with a token
// bucket. perMinute <= 0 disables it.
func LoginRateLimiter(perMinute, burst int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	buckets := newLimiterStore(rate.Limit(float64(perMinute)/60), burst, limiterCacheSize, limiterIdleTTL)

	return func(c *fiber.Ctx) error {
		reservation := buckets.get(c.IP()).Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			return apperrors.NewDomainError("RATE_LIMITED", "too many login attempts, try again later",
				fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}

// limiterStore hands out one limiter per key. A bucket expires only after
// idleTTL without requests.
type limiterStore struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets *lru.LRU[string, *rate.Limiter]
}

func newLimiterStore(limit rate.Limit, burst, size int, idleTTL time.Duration) *limiterStore {
	return &limiterStore{
		limit:   limit,
		burst:   burst,
		buckets: lru.NewLRU[string, *rate.Limiter](size, nil, idleTTL),
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(s.limit, s.burst)
	}
	// Add also pushes the expiry forward for an existing key.
	s.buckets.Add(key, lim)
	return lim
}
