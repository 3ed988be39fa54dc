// Package cache holds the two-tier waveform cache: a fast in-memory
// map in front of a durable store, with at-most-one generation in
// flight per track id.
package cache

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/jvetere1999/passion-os-sub009/core/waveform"
	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// Store is the durable tier. A miss is (nil, nil); Put may fail on
// capacity and implementations are expected to prune and retry before
// reporting it.
type Store interface {
	Get(ctx context.Context, id string) (*model.CachedWaveform, error)
	Put(ctx context.Context, entry *model.CachedWaveform) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// inflightCall is one running generation. Waiters block on done and
// read data afterwards; data is nil when generation failed.
type inflightCall struct {
	done chan struct{}
	data *model.WaveformData
}

// WaveformCache memoizes waveform extraction by track id. The
// in-memory map and the in-flight registry are instance fields, not
// package state, so isolated instances can be constructed freely.
// Caching is an optimization: every failure path still hands the
// caller whatever waveform could be computed.
type WaveformCache struct {
	generator *waveform.Generator
	store     Store // nil runs memory-only

	mu       sync.Mutex
	mem      map[string]*model.WaveformData
	inflight map[string]*inflightCall
}

// NewWaveformCache builds a cache over a generator and an optional
// durable store.
func NewWaveformCache(generator *waveform.Generator, store Store) *WaveformCache {
	return &WaveformCache{
		generator: generator,
		store:     store,
		mem:       make(map[string]*model.WaveformData),
		inflight:  make(map[string]*inflightCall),
	}
}

// Generate returns the waveform for the track id, generating from the
// URL on a full miss. Concurrent callers for the same id share one
// generation. Returns nil when the audio cannot be fetched or decoded.
func (c *WaveformCache) Generate(ctx context.Context, audioURL, id string, bars int) *model.WaveformData {
	return c.lookupOrGenerate(ctx, id, func(genCtx context.Context) *model.WaveformData {
		data, err := c.generator.Generate(genCtx, audioURL, bars)
		if err != nil {
			logger.Warn("waveform generation failed",
				logger.String("trackId", id),
				logger.ErrorField(err))
			return nil
		}
		return data
	})
}

// GenerateFromBuffer is the entry point for content not reachable by
// URL. An empty id is replaced by a content hash of the buffer so
// identical buffers share a cache slot.
func (c *WaveformCache) GenerateFromBuffer(ctx context.Context, data []byte, id string, bars int) *model.WaveformData {
	if id == "" {
		id = contentID(data)
	}
	return c.lookupOrGenerate(ctx, id, func(genCtx context.Context) *model.WaveformData {
		wf, err := c.generator.FromBuffer(genCtx, data, bars)
		if err != nil {
			logger.Warn("waveform generation from buffer failed",
				logger.String("trackId", id),
				logger.ErrorField(err))
			return nil
		}
		return wf
	})
}

// Cached returns the in-memory entry without generating.
func (c *WaveformCache) Cached(id string) *model.WaveformData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem[id]
}

// Invalidate drops the id from both tiers.
func (c *WaveformCache) Invalidate(ctx context.Context, id string) {
	c.mu.Lock()
	delete(c.mem, id)
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Delete(ctx, id); err != nil {
			logger.Warn("failed to drop waveform from durable store",
				logger.String("trackId", id),
				logger.ErrorField(err))
		}
	}
}

// lookupOrGenerate is the shared cache-first path: memory, then the
// durable store (back-filling memory), then one guarded generation.
func (c *WaveformCache) lookupOrGenerate(ctx context.Context, id string, generate func(context.Context) *model.WaveformData) *model.WaveformData {
	c.mu.Lock()
	if data, ok := c.mem[id]; ok {
		c.mu.Unlock()
		return data
	}
	if call, ok := c.inflight[id]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.data
		case <-ctx.Done():
			return nil
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[id] = call
	c.mu.Unlock()

	data := c.loadDurable(ctx, id)
	fromStore := data != nil
	if data == nil {
		data = generate(ctx)
	}

	c.mu.Lock()
	delete(c.inflight, id)
	if data != nil {
		c.mem[id] = data
	}
	c.mu.Unlock()
	call.data = data
	close(call.done)

	if data != nil && !fromStore {
		c.storeDurable(ctx, id, data)
	}
	return data
}

func (c *WaveformCache) loadDurable(ctx context.Context, id string) *model.WaveformData {
	if c.store == nil {
		return nil
	}
	entry, err := c.store.Get(ctx, id)
	if err != nil {
		logger.Warn("durable waveform lookup failed",
			logger.String("trackId", id),
			logger.ErrorField(err))
		return nil
	}
	if entry == nil {
		return nil
	}
	data := entry.Data
	return &data
}

func (c *WaveformCache) storeDurable(ctx context.Context, id string, data *model.WaveformData) {
	if c.store == nil {
		return
	}
	entry := &model.CachedWaveform{
		ID:        id,
		Data:      *data,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		// The waveform was already handed out; losing the cache write
		// costs a recompute later, nothing more.
		logger.Warn("failed to persist waveform",
			logger.String("trackId", id),
			logger.ErrorField(err))
	}
}

// contentID addresses a buffer by hash so buffer-sourced waveforms
// without a track id still dedupe.
func contentID(data []byte) string {
	sum := blake2b.Sum256(data)
	return "buf-" + hex.EncodeToString(sum[:16])
}
