package prefs

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// QueueKey is the per-user storage key for the persisted queue.
func QueueKey(userID int64) string {
	return fmt.Sprintf("player:%d:queue", userID)
}

// RestoredQueue is a validated queue load: the surviving tracks, a
// clamped index, and a sanitized position.
type RestoredQueue struct {
	Queue       []model.QueueTrack
	QueueIndex  int
	CurrentTime float64
}

// QueueStore persists one user's queue and position.
type QueueStore struct {
	store TextStore
	key   string
	ttl   time.Duration
}

// NewQueueStore scopes a queue store to one user.
func NewQueueStore(store TextStore, userID int64) *QueueStore {
	return &QueueStore{store: store, key: QueueKey(userID), ttl: model.QueueTTL}
}

// Save persists the queue, index and position. An empty queue deletes
// the entry instead of storing an empty shell.
func (s *QueueStore) Save(queue []model.QueueTrack, queueIndex int, currentTime float64) error {
	if len(queue) == 0 {
		if err := s.store.Remove(s.key); err != nil {
			return fmt.Errorf("failed to remove persisted queue: %w", err)
		}
		return nil
	}

	serialized := make([]model.SerializedQueueTrack, 0, len(queue))
	for _, t := range queue {
		serialized = append(serialized, t.Serialized())
	}
	if math.IsNaN(currentTime) || math.IsInf(currentTime, 0) || currentTime < 0 {
		currentTime = 0
	}

	payload := model.QueueStorage{
		Version:     model.QueueStorageVersion,
		Queue:       serialized,
		QueueIndex:  queueIndex,
		CurrentTime: currentTime,
		UpdatedAt:   time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal queue state: %w", err)
	}
	if err := s.store.Set(s.key, string(raw)); err != nil {
		return fmt.Errorf("failed to persist queue state: %w", err)
	}
	return nil
}

// Load restores the persisted queue. Structural damage or staleness
// purges the entry and returns nil; individually invalid tracks are
// dropped silently and the index re-clamped to what survived.
func (s *QueueStore) Load() *RestoredQueue {
	raw, ok := s.store.Get(s.key)
	if !ok {
		return nil
	}

	env, ok := validateQueuePayload(raw)
	if !ok {
		logger.Warn("discarding structurally invalid persisted queue", logger.String("key", s.key))
		s.purge()
		return nil
	}

	age := time.Since(time.UnixMilli(env.updatedAt))
	if age > s.ttl {
		logger.Info("discarding expired persisted queue",
			logger.String("key", s.key),
			logger.Duration("age", age))
		s.purge()
		return nil
	}

	tracks := make([]model.QueueTrack, 0, len(env.queue))
	dropped := 0
	for _, rawTrack := range env.queue {
		st, ok := model.ParseSerializedTrack(rawTrack)
		if !ok {
			dropped++
			continue
		}
		tracks = append(tracks, st.Track())
	}
	if dropped > 0 {
		logger.Warn("dropped invalid tracks from persisted queue",
			logger.String("key", s.key),
			logger.Int("dropped", dropped),
			logger.Int("kept", len(tracks)))
	}
	if len(tracks) == 0 {
		s.purge()
		return nil
	}

	index := env.queueIndex
	if index >= len(tracks) {
		index = len(tracks) - 1
	}
	if index < 0 {
		index = 0
	}

	currentTime := env.currentTime
	if math.IsNaN(currentTime) || math.IsInf(currentTime, 0) || currentTime < 0 {
		currentTime = 0
	}

	return &RestoredQueue{
		Queue:       tracks,
		QueueIndex:  index,
		CurrentTime: currentTime,
	}
}

// Clear removes the persisted entry.
func (s *QueueStore) Clear() error {
	if err := s.store.Remove(s.key); err != nil {
		return fmt.Errorf("failed to remove persisted queue: %w", err)
	}
	return nil
}

func (s *QueueStore) purge() {
	if err := s.store.Remove(s.key); err != nil {
		logger.Warn("failed to purge persisted queue",
			logger.String("key", s.key),
			logger.ErrorField(err))
	}
}

// queueEnvelope is the structurally validated payload before any track
// is trusted.
type queueEnvelope struct {
	queue       []json.RawMessage
	queueIndex  int
	currentTime float64
	updatedAt   int64
}

// validateQueuePayload checks the version tag, that queue is
// array-shaped, that queueIndex is numeric and currentTime
// numeric-or-null, before anything in the payload is used.
func validateQueuePayload(raw string) (queueEnvelope, bool) {
	var probe struct {
		Version     *int              `json:"version"`
		Queue       []json.RawMessage `json:"queue"`
		QueueIndex  *float64          `json:"queueIndex"`
		CurrentTime *float64          `json:"currentTime"`
		UpdatedAt   *int64            `json:"updatedAt"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return queueEnvelope{}, false
	}
	if probe.Version == nil || *probe.Version != model.QueueStorageVersion {
		return queueEnvelope{}, false
	}
	if probe.Queue == nil || probe.QueueIndex == nil || probe.UpdatedAt == nil {
		return queueEnvelope{}, false
	}

	env := queueEnvelope{
		queue:      probe.Queue,
		queueIndex: int(*probe.QueueIndex),
		updatedAt:  *probe.UpdatedAt,
	}
	if probe.CurrentTime != nil {
		env.currentTime = *probe.CurrentTime
	}
	return env, true
}
