package cache

import (
	"errors"
	"strings"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// RateLimitKey is the key that gates a platform after it was rate limited
func RateLimitKey(platform string) string {
	return strings.ReplaceAll(strings.ToLower(platform), " ", "_") + "_rate_limited"
}
