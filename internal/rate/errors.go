package rate

import "errors"

var (
	// ErrRateLimited is returned once a client exceeds its submission budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
