package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariebrainware/patient-intake/config"
	"github.com/ariebrainware/patient-intake/util"
	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	// Rate limiting defaults
	defaultRateLimit  = 100              // 100 requests
	defaultRateWindow = 15 * time.Minute // per 15 minutes

	rateLimitHeader     = "X-RateLimit-Limit"
	rateRemainingHeader = "X-RateLimit-Remaining"

	rateLimitMsg = "❌ Too many requests, please try again later."
)

// ErrRateLimited is reported when a client exceeds its quota for the current window.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// rateCounter increments the hit count of key within a fixed window that starts at
// the key's first hit.
type rateCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// redisCounter shares counters between processes.
type redisCounter struct {
	rdb *redis.Client
}

func (r redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX leaves a running window untouched and restores a TTL that an earlier
	// failed hit never set.
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to check rate limit: %w", err)
	}
	return incr.Val(), nil
}

// memoryCounter keeps counters in process; each key expires with its window.
type memoryCounter struct {
	store *cache.Cache
}

func newMemoryCounter(window time.Duration) memoryCounter {
	return memoryCounter{store: cache.New(window, window)}
}

func (m memoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, error) {
	for {
		if err := m.store.Add(key, int64(1), window); err == nil {
			return 1, nil
		}
		count, err := m.store.IncrementInt64(key, 1)
		if err == nil {
			return count, nil
		}
		// The key expired between Add and IncrementInt64; start a new window.
	}
}

// RateLimiter creates a fixed-window rate limiting middleware keyed by client address.
// Counters live in Redis when a client is configured, otherwise in process.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}
	local := newMemoryCounter(cfg.Window)
	limit := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := fmt.Sprintf("ratelimit:%s", clientIP)

		count, err := counterFor(local).Hit(c.Request.Context(), key, cfg.Window)
		if err != nil {
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventSuspiciousActivity,
				IP:        clientIP,
				Path:      c.Request.URL.Path,
				Message:   fmt.Sprintf("Rate limit check failed, using local counter: %v", err),
			})
			count, _ = local.Hit(c.Request.Context(), key, cfg.Window)
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header(rateLimitHeader, limit)
		c.Header(rateRemainingHeader, strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			util.LogRateLimitExceeded(util.RateLimitParams{
				IP:       clientIP,
				Endpoint: c.Request.URL.Path,
				Count:    count,
			})
			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: rateLimitMsg,
				Err: ErrRateLimited,
			})
			return
		}

		c.Next()
	}
}

func counterFor(local rateCounter) rateCounter {
	if rdb := config.GetRedisClient(); rdb != nil {
		return redisCounter{rdb: rdb}
	}
	return local
}
