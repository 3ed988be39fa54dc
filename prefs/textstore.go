// Package prefs persists user playback preferences and the current
// queue with explicit schema versioning, debounced writes, and
// corruption-tolerant loads. Malformed persisted data is discarded and
// replaced by defaults, never partially repaired.
package prefs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jvetere1999/passion-os-sub009/logger"
)

// TextStore is the small persisted text store the engine reads and
// writes synchronously. A missing key is ("", false), never an error.
type TextStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// storeTimeout bounds each store round trip.
const storeTimeout = 5 * time.Second

// RedisTextStore backs TextStore with Redis strings.
type RedisTextStore struct {
	client *redis.Client
}

// NewRedisTextStore wraps a client.
func NewRedisTextStore(client *redis.Client) *RedisTextStore {
	return &RedisTextStore{client: client}
}

// Get implements TextStore. Lookup failures read as missing so a flaky
// store degrades to defaults instead of erroring.
func (s *RedisTextStore) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("text store read failed",
				logger.String("key", key),
				logger.ErrorField(err))
		}
		return "", false
	}
	return val, true
}

// Set implements TextStore.
func (s *RedisTextStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return s.client.Set(ctx, key, value, 0).Err()
}

// Remove implements TextStore.
func (s *RedisTextStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return s.client.Del(ctx, key).Err()
}
