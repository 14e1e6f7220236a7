package middleware

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/reactorhq/aroundware/pkg/aroundware"
	"github.com/reactorhq/aroundware/pkg/common"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Unique identifier for this rate limit bucket
	// If multiple routes share the same BucketName, they share the same rate limit
	BucketName string

	// Maximum number of requests allowed in the time window
	Limit int

	// Time window for the rate limit (e.g., 1 second, 1 minute)
	// A zero window defaults to 1 second
	Window time.Duration

	// Custom key extractor function
	// If nil, the client IP is used
	KeyExtractor func(*common.RequestContext) (string, error)
}

// RateLimiter defines the interface for rate limiting algorithms
type RateLimiter interface {
	// Allow checks if a request is allowed based on the key and rate limit config
	// Returns true if the request is allowed, false otherwise
	// Also returns the number of remaining requests and time until reset
	Allow(key string, limit int, window time.Duration) (bool, int, time.Duration)
}

// UberRateLimiter implements RateLimiter using Uber's ratelimit library for
// request pacing, combined with a per-window counter so hard limits are
// enforced deterministically.
type UberRateLimiter struct {
	limiters sync.Map // map[string]ratelimit.Limiter
	mu       sync.Mutex

	countersMu sync.Mutex
	counters   map[string]*windowCounter
}

// windowCounter tracks the number of requests in the current window.
type windowCounter struct {
	start time.Time
	count int
}

// NewUberRateLimiter creates a new rate limiter using Uber's ratelimit library
func NewUberRateLimiter() *UberRateLimiter {
	return &UberRateLimiter{
		counters: make(map[string]*windowCounter),
	}
}

// getLimiter gets or creates a pacing limiter for the given key and rate
func (u *UberRateLimiter) getLimiter(key string, rps int) ratelimit.Limiter {
	if limiter, ok := u.limiters.Load(key); ok {
		return limiter.(ratelimit.Limiter)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	// Double-check after acquiring lock
	if limiter, ok := u.limiters.Load(key); ok {
		return limiter.(ratelimit.Limiter)
	}

	limiter := ratelimit.New(rps, ratelimit.WithoutSlack)
	u.limiters.Store(key, limiter)
	return limiter
}

// Allow checks if a request is allowed based on the key and rate limit config
func (u *UberRateLimiter) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	now := time.Now()

	effectiveWindow := window
	if effectiveWindow <= 0 {
		effectiveWindow = time.Second
	}
	effectiveLimit := limit
	if effectiveLimit <= 0 {
		effectiveLimit = 1
	}

	u.countersMu.Lock()
	counter, ok := u.counters[key]
	if !ok || now.Sub(counter.start) > effectiveWindow {
		// First request in a new window
		counter = &windowCounter{start: now}
		u.counters[key] = counter
	}
	counter.count++
	count := counter.count
	reset := effectiveWindow - now.Sub(counter.start)
	u.countersMu.Unlock()

	if count > effectiveLimit {
		return false, 0, reset
	}

	// Pace admitted requests so bursts within the limit are smoothed out.
	// Sub-1-rps limits are enforced by the window counter alone; pacing them
	// would overshoot the configured rate.
	rps := int(float64(effectiveLimit) / effectiveWindow.Seconds())
	if rps >= 1 {
		u.getLimiter(key, rps).Take()
	}

	remaining := effectiveLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, reset
}

// extractIP extracts the client IP address from the request.
// It prefers the X-Forwarded-For header (leftmost entry is the original
// client), then X-Real-IP, and falls back to RemoteAddr.
func extractIP(ctx *common.RequestContext) string {
	ip := ctx.Request.Header.Get("X-Forwarded-For")
	if ip != "" {
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	ip = ctx.Request.Header.Get("X-Real-IP")
	if ip != "" {
		return ip
	}

	return ctx.Request.RemoteAddr
}

// RateLimit returns a factory whose aroundware enforces the given rate limit.
// Exceeding the limit short-circuits the request from pre-process with a
// 429 Too Many Requests response carrying Retry-After and X-RateLimit-*
// headers; admitted requests get the X-RateLimit-* headers stamped on their
// final response.
func RateLimit(config *RateLimitConfig, limiter RateLimiter, logger *zap.Logger) aroundware.Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx *common.RequestContext) aroundware.Aroundware {
		var remaining int
		var reset time.Duration

		pre := func(c *common.RequestContext) (*common.Result, error) {
			if config == nil {
				return nil, nil
			}

			var key string
			if config.KeyExtractor != nil {
				var err error
				key, err = config.KeyExtractor(c)
				if err != nil {
					logger.Error("Failed to extract rate limit key",
						zap.Error(err),
						zap.String("method", c.Request.Method),
						zap.String("path", c.Request.URL.Path),
					)
					return nil, common.NewHTTPError(500, "Internal Server Error")
				}
			} else {
				key = extractIP(c)
			}

			// Combine bucket name and key to create a unique identifier
			bucketKey := config.BucketName + ":" + key

			var allowed bool
			allowed, remaining, reset = limiter.Allow(bucketKey, config.Limit, config.Window)
			if !allowed {
				logger.Warn("Rate limit exceeded",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("key", key),
					zap.Int("limit", config.Limit),
				)
				return nil, common.NewHTTPError(429, "Too Many Requests").
					WithHeader("Retry-After", strconv.FormatInt(int64(reset.Seconds()), 10)).
					WithHeader("X-RateLimit-Limit", strconv.Itoa(config.Limit)).
					WithHeader("X-RateLimit-Remaining", "0")
			}

			return nil, nil
		}

		post := func(c *common.RequestContext, res *common.Result) (*common.Result, error) {
			if config == nil {
				return res, nil
			}
			return res.
				WithHeader("X-RateLimit-Limit", strconv.Itoa(config.Limit)).
				WithHeader("X-RateLimit-Remaining", strconv.Itoa(remaining)).
				WithHeader("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10)), nil
		}

		return aroundware.NewBase(ctx, pre, post)
	}
}
