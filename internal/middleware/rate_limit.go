package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// KeyPrefix namespaces the counters of one action, e.g. "rate_limit:recipe_creation"
	KeyPrefix string
}

// Decision is the outcome of a single limiter check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter counts one request against key and reports whether it may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RecipeCreationConfig limits recipe creation per user
func RecipeCreationConfig(limit int) RateLimitConfig {
	return RateLimitConfig{Window: time.Hour, Limit: limit, KeyPrefix: "rate_limit:recipe_creation"}
}

// RecipeModificationConfig limits modifications per user and recipe
func RecipeModificationConfig(limit int) RateLimitConfig {
	return RateLimitConfig{Window: time.Hour, Limit: limit, KeyPrefix: "rate_limit:recipe_modification"}
}

// RedisLimiter is a fixed-window counter shared by every API instance
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

func NewRedisLimiter(client *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{redis: client, config: config}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	return Decision{
		Allowed:   count <= rl.config.Limit,
		Limit:     rl.config.Limit,
		Remaining: max(rl.config.Limit-count, 0),
		Reset:     windowStart.Add(rl.config.Window),
	}, nil
}

// MemoryLimiter keeps a token bucket per key in process memory.
// It is used when Redis is not reachable at startup.
type MemoryLimiter struct {
	config    RateLimitConfig
	every     rate.Limit
	mu        sync.Mutex
	limiters  map[string]*memoryEntry
	lastSweep time.Time
}

type memoryEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewMemoryLimiter(config RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{
		config:    config,
		every:     rate.Every(config.Window / time.Duration(config.Limit)),
		limiters:  make(map[string]*memoryEntry),
		lastSweep: time.Now(),
	}
}

func (ml *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := time.Now()

	ml.mu.Lock()
	ml.sweep(now)
	entry, ok := ml.limiters[key]
	if !ok {
		entry = &memoryEntry{limiter: rate.NewLimiter(ml.every, ml.config.Limit)}
		ml.limiters[key] = entry
	}
	entry.lastAccess = now
	ml.mu.Unlock()

	allowed := entry.limiter.AllowN(now, 1)
	tokens := entry.limiter.TokensAt(now)
	remaining := max(int(tokens), 0)

	// time until one more token is available
	reset := now
	if tokens < 1 {
		reset = now.Add(time.Duration((1 - tokens) * float64(time.Second) / float64(ml.every)))
	}

	return Decision{
		Allowed:   allowed,
		Limit:     ml.config.Limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

// sweep drops buckets idle for a whole window; must be called with mu held.
func (ml *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(ml.lastSweep) < ml.config.Window {
		return
	}
	threshold := now.Add(-ml.config.Window)
	for key, entry := range ml.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(ml.limiters, key)
		}
	}
	ml.lastSweep = now
}

// KeyFunc derives the limiter key from an authenticated request
type KeyFunc func(c *gin.Context, userID string) string

// ByUser limits each user independently
func ByUser(_ *gin.Context, userID string) string {
	return userID
}

// ByUserAndRecipe limits each (user, recipe) pair independently
func ByUserAndRecipe(c *gin.Context, userID string) string {
	return userID + ":" + c.Param("id")
}

// RateLimit enforces limiter for action. It must run after RequireAuth.
// A failing limiter lets the request through.
func RateLimit(limiter Limiter, action string, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
			return
		}

		d, err := limiter.Allow(c.Request.Context(), key(c, userID.String()))
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Str("action", action).Msg("rate limit check failed")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

		if !d.Allowed {
			metrics.RateLimitRejections.WithLabelValues(action).Inc()
			retryAfter := max(int(time.Until(d.Reset).Seconds()), 1)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
