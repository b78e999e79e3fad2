package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds throttle tuning parameters.
type Config struct {
	MaxSubmissions int
	Window         time.Duration
}

// Limiter enforces a per-IP code submission budget using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckSubmit returns ErrRateLimited when ip has already used its budget for
// the current window. An empty ip is never throttled.
func (l *Limiter) CheckSubmit(ctx context.Context, ip string) error {
	if l == nil || ip == "" {
		return nil
	}

	count, err := l.Submissions(ctx, ip)
	if err != nil {
		return err
	}
	if count >= l.config.MaxSubmissions {
		return ErrRateLimited
	}
	return nil
}

// IncrementSubmit records one submission from ip.
func (l *Limiter) IncrementSubmit(ctx context.Context, ip string) error {
	if l == nil || ip == "" {
		return nil
	}

	count, err := l.redis.Incr(ctx, submitKey(ip)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, submitKey(ip), l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// Submissions returns the submission count for ip in the current window.
func (l *Limiter) Submissions(ctx context.Context, ip string) (int, error) {
	if l == nil || ip == "" {
		return 0, nil
	}
	count, err := l.redis.Get(ctx, submitKey(ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

func submitKey(ip string) string {
	return "gv:" + ip
}
