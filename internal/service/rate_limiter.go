package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"contact-api/internal/domain"
	"contact-api/pkg/logger"
	"contact-api/pkg/redis"
)

// Fixed window defaults for contact form submissions
const (
	DefaultRateLimitWindow   = 15 * time.Minute
	DefaultRateLimitRequests = 5
)

// redisRateLimiter counts requests per hashed IP in Redis
type redisRateLimiter struct {
	redisClient *redis.Client
	window      time.Duration
	limit       int64
	logger      *logger.Logger
}

// NewRedisRateLimiter creates a fixed window limiter backed by Redis
func NewRedisRateLimiter(redisClient *redis.Client, window time.Duration, limit int64, log *logger.Logger) RateLimiter {
	window, limit = rateLimitDefaults(window, limit)
	if log == nil {
		log = logger.NewNop()
	}
	return &redisRateLimiter{
		redisClient: redisClient,
		window:      window,
		limit:       limit,
		logger:      log,
	}
}

// Allow increments the counter for ipAddress and reports whether the request fits
func (l *redisRateLimiter) Allow(ctx context.Context, ipAddress string) (*domain.RateLimitInfo, error) {
	key := l.redisClient.KeyBuilder.KeyContactRateLimit(createIPHash(ipAddress))

	// Increment the counter for this IP
	count, err := l.redisClient.Incr(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// Set expiry on first request
	ttl := l.window
	if count == 1 {
		if err := l.redisClient.Expire(ctx, key, l.window); err != nil {
			l.logger.WithError(err).Warn("Failed to set rate limit key expiry")
		}
	} else if remaining, err := l.redisClient.TTL(ctx, key); err == nil {
		if remaining > 0 {
			ttl = remaining
		} else if remaining == -1 {
			// Counter lost its expiry, restart the window instead of blocking forever
			if err := l.redisClient.Expire(ctx, key, l.window); err != nil {
				l.logger.WithError(err).Warn("Failed to repair rate limit key expiry")
			}
		}
	}

	return &domain.RateLimitInfo{
		IPAddress:    ipAddress,
		RequestCount: count,
		Limit:        l.limit,
		WindowStart:  time.Now().Add(ttl - l.window),
		TTL:          ttl,
		IsAllowed:    count <= l.limit,
	}, nil
}

type rateWindow struct {
	start time.Time
	count int64
}

// memoryRateLimiter is the in-process fallback used when Redis is not configured
type memoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	window  time.Duration
	limit   int64
	now     func() time.Time
}

// NewMemoryRateLimiter creates a fixed window limiter kept in process memory
func NewMemoryRateLimiter(window time.Duration, limit int64) RateLimiter {
	window, limit = rateLimitDefaults(window, limit)
	return &memoryRateLimiter{
		windows: make(map[string]*rateWindow),
		window:  window,
		limit:   limit,
		now:     time.Now,
	}
}

func (l *memoryRateLimiter) Allow(ctx context.Context, ipAddress string) (*domain.RateLimitInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := createIPHash(ipAddress)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.pruneLocked(now)
		w = &rateWindow{start: now}
		l.windows[key] = w
	}
	w.count++

	return &domain.RateLimitInfo{
		IPAddress:    ipAddress,
		RequestCount: w.count,
		Limit:        l.limit,
		WindowStart:  w.start,
		TTL:          w.start.Add(l.window).Sub(now),
		IsAllowed:    w.count <= l.limit,
	}, nil
}

// pruneLocked drops expired windows. Caller holds l.mu.
func (l *memoryRateLimiter) pruneLocked(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
		}
	}
}

func rateLimitDefaults(window time.Duration, limit int64) (time.Duration, int64) {
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	if limit <= 0 {
		limit = DefaultRateLimitRequests
	}
	return window, limit
}

// createIPHash creates a hash for IP address (for rate limiting privacy)
func createIPHash(ipAddress string) string {
	hash := sha256.Sum256([]byte(ipAddress))
	return fmt.Sprintf("%x", hash)[:16] // Use first 16 chars for shorter key
}
