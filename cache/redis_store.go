package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

const (
	waveformKeyPrefix = "waveform:"
	waveformIndexKey  = "waveform:index"
)

// RedisStore is the durable waveform tier: one JSON entry per track id
// plus a sorted-set index scored by creation time, which is what makes
// oldest-first eviction cheap.
type RedisStore struct {
	client     *redis.Client
	maxEntries int
	ttl        time.Duration // 0 keeps entries until evicted
}

// NewRedisStore builds a durable store capped at maxEntries.
func NewRedisStore(client *redis.Client, maxEntries int, ttl time.Duration) *RedisStore {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	return &RedisStore{client: client, maxEntries: maxEntries, ttl: ttl}
}

func waveformKey(id string) string {
	return waveformKeyPrefix + id
}

// Get implements Store. A missing entry is (nil, nil).
func (s *RedisStore) Get(ctx context.Context, id string) (*model.CachedWaveform, error) {
	raw, err := s.client.Get(ctx, waveformKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get waveform entry: %w", err)
	}

	var entry model.CachedWaveform
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt entry is dropped, not repaired.
		_ = s.Delete(ctx, id)
		return nil, nil
	}
	return &entry, nil
}

// Put implements Store. The cap is enforced before writing; a failed
// write prunes retention to half the cap and retries once before
// reporting the failure.
func (s *RedisStore) Put(ctx context.Context, entry *model.CachedWaveform) error {
	if err := s.evictToFit(ctx, s.maxEntries-1); err != nil {
		logger.Warn("waveform cache eviction failed", logger.ErrorField(err))
	}

	err := s.write(ctx, entry)
	if err == nil {
		return nil
	}
	logger.Warn("waveform cache write failed, pruning and retrying",
		logger.String("trackId", entry.ID),
		logger.ErrorField(err))

	if err := s.evictToFit(ctx, s.maxEntries/2); err != nil {
		return fmt.Errorf("failed to prune waveform cache: %w", err)
	}
	if err := s.write(ctx, entry); err != nil {
		return fmt.Errorf("failed to write waveform entry after prune: %w", err)
	}
	return nil
}

func (s *RedisStore) write(ctx context.Context, entry *model.CachedWaveform) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal waveform entry: %w", err)
	}
	if err := s.client.Set(ctx, waveformKey(entry.ID), raw, s.ttl).Err(); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, waveformIndexKey, redis.Z{
		Score:  float64(entry.CreatedAt),
		Member: entry.ID,
	}).Err()
}

// evictToFit removes oldest entries until at most limit remain.
func (s *RedisStore) evictToFit(ctx context.Context, limit int) error {
	if limit < 0 {
		limit = 0
	}
	count, err := s.client.ZCard(ctx, waveformIndexKey).Result()
	if err != nil {
		return err
	}
	excess := int(count) - limit
	if excess <= 0 {
		return nil
	}

	oldest, err := s.client.ZRange(ctx, waveformIndexKey, 0, int64(excess-1)).Result()
	if err != nil {
		return err
	}
	for _, id := range oldest {
		if err := s.client.Del(ctx, waveformKey(id)).Err(); err != nil {
			return err
		}
		if err := s.client.ZRem(ctx, waveformIndexKey, id).Err(); err != nil {
			return err
		}
	}
	logger.Debug("evicted waveform cache entries", logger.Int("count", excess))
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, waveformKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete waveform entry: %w", err)
	}
	if err := s.client.ZRem(ctx, waveformIndexKey, id).Err(); err != nil {
		return fmt.Errorf("failed to deindex waveform entry: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, waveformIndexKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list waveform entries: %w", err)
	}
	for _, id := range ids {
		if err := s.client.Del(ctx, waveformKey(id)).Err(); err != nil {
			return fmt.Errorf("failed to delete waveform entry: %w", err)
		}
	}
	if err := s.client.Del(ctx, waveformIndexKey).Err(); err != nil {
		return fmt.Errorf("failed to delete waveform index: %w", err)
	}
	return nil
}
