package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jvetere1999/passion-os-sub009/core/codec"
	"github.com/jvetere1999/passion-os-sub009/core/waveform"
	"github.com/jvetere1999/passion-os-sub009/model"
)

type countingDecoder struct {
	calls int32
}

func (d *countingDecoder) Decode(ctx context.Context, data []byte) (*codec.PCMBuffer, error) {
	atomic.AddInt32(&d.calls, 1)
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 0.5
	}
	return &codec.PCMBuffer{Channels: [][]float64{samples}, SampleRate: 44100}, nil
}

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*model.CachedWaveform
	puts    int
	deletes int
	getErr  error
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*model.CachedWaveform)}
}

func (s *fakeStore) Get(ctx context.Context, id string) (*model.CachedWaveform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.entries[id], nil
}

func (s *fakeStore) Put(ctx context.Context, entry *model.CachedWaveform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[entry.ID] = entry
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.entries, id)
	return nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*model.CachedWaveform)
	return nil
}

// newTestCache wires a cache whose fetches count calls and optionally
// block on gate.
func newTestCache(store Store, fetchCalls *int32, gate chan struct{}, fetchErr error) *WaveformCache {
	gen := waveform.NewGenerator(&countingDecoder{}, waveform.Options{
		Bars: 16,
		Fetch: func(ctx context.Context, url string) ([]byte, error) {
			atomic.AddInt32(fetchCalls, 1)
			if gate != nil {
				<-gate
			}
			if fetchErr != nil {
				return nil, fetchErr
			}
			return []byte("audio"), nil
		},
	})
	return NewWaveformCache(gen, store)
}

func TestGenerate_MemoizesByID(t *testing.T) {
	var fetches int32
	c := newTestCache(nil, &fetches, nil, nil)

	first := c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)
	if first == nil {
		t.Fatal("Generate returned nil on the happy path")
	}
	second := c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)
	if second != first {
		t.Error("second lookup did not return the memoized entry")
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("fetch count = %d, want 1", n)
	}
	if c.Cached("t1") == nil {
		t.Error("Cached miss after Generate")
	}
}

func TestGenerate_ConcurrentCallersShareOneGeneration(t *testing.T) {
	var fetches int32
	gate := make(chan struct{})
	c := newTestCache(nil, &fetches, gate, nil)

	const callers = 8
	results := make([]*model.WaveformData, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)
		}(i)
	}
	close(gate)
	wg.Wait()

	for i, r := range results {
		if r == nil {
			t.Fatalf("caller %d got nil", i)
		}
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("fetch count = %d, want 1 shared generation", n)
	}
}

func TestGenerate_FailureIsNotCached(t *testing.T) {
	var fetches int32
	c := newTestCache(nil, &fetches, nil, errors.New("unreachable"))

	if got := c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0); got != nil {
		t.Fatalf("Generate = %v, want nil on fetch failure", got)
	}
	if c.Cached("t1") != nil {
		t.Error("failed generation left a cache entry")
	}

	// The next request must try again, not replay the failure.
	c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)
	if n := atomic.LoadInt32(&fetches); n != 2 {
		t.Errorf("fetch count = %d, want 2 (failures retried)", n)
	}
}

func TestGenerate_DurableHitSkipsGeneration(t *testing.T) {
	store := newFakeStore()
	store.entries["t1"] = &model.CachedWaveform{
		ID:        "t1",
		Data:      model.WaveformData{Peaks: []float64{0.4}, NormalizedPeaks: []float64{1}, Duration: 2, SampleRate: 44100},
		CreatedAt: 123,
	}
	var fetches int32
	c := newTestCache(store, &fetches, nil, nil)

	got := c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)
	if got == nil || got.Duration != 2 {
		t.Fatalf("Generate = %+v, want the stored entry", got)
	}
	if n := atomic.LoadInt32(&fetches); n != 0 {
		t.Errorf("fetch count = %d, want 0 on a durable hit", n)
	}
	if c.Cached("t1") == nil {
		t.Error("durable hit did not back-fill the memory tier")
	}
}

func TestGenerate_PopulatesDurableStore(t *testing.T) {
	store := newFakeStore()
	var fetches int32
	c := newTestCache(store, &fetches, nil, nil)

	c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)

	store.mu.Lock()
	entry := store.entries["t1"]
	store.mu.Unlock()
	if entry == nil {
		t.Fatal("generation did not populate the durable store")
	}
	if entry.ID != "t1" || entry.CreatedAt <= 0 {
		t.Errorf("entry = %+v, want id t1 with a creation stamp", entry)
	}
}

func TestGenerate_StoreFailuresAreNotFatal(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("store down")
	store.putErr = errors.New("store down")
	var fetches int32
	c := newTestCache(store, &fetches, nil, nil)

	if got := c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0); got == nil {
		t.Fatal("Generate = nil, want a waveform despite store failures")
	}
}

func TestGenerate_CancelledWaiter(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	gen := waveform.NewGenerator(&countingDecoder{}, waveform.Options{
		Bars: 16,
		Fetch: func(ctx context.Context, url string) ([]byte, error) {
			close(entered)
			<-gate
			return []byte("audio"), nil
		},
	})
	c := NewWaveformCache(gen, nil)

	go c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)

	// Once the fetch has started the generation is registered, so the
	// second caller joins it as a waiter.
	<-entered
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := c.Generate(ctx, "https://blobs/a.mp3", "t1", 0); got != nil {
		t.Errorf("Generate = %v, want nil for a cancelled waiter", got)
	}

	close(gate)
}

func TestGenerateFromBuffer_ContentAddressed(t *testing.T) {
	decoder := &countingDecoder{}
	gen := waveform.NewGenerator(decoder, waveform.Options{Bars: 16})
	c := NewWaveformCache(gen, nil)

	audio := []byte("same bytes")
	first := c.GenerateFromBuffer(context.Background(), audio, "", 0)
	second := c.GenerateFromBuffer(context.Background(), audio, "", 0)
	if first == nil || second == nil {
		t.Fatal("GenerateFromBuffer returned nil")
	}
	if n := atomic.LoadInt32(&decoder.calls); n != 1 {
		t.Errorf("decode count = %d, want 1 (identical buffers share a slot)", n)
	}

	c.GenerateFromBuffer(context.Background(), []byte("other bytes"), "", 0)
	if n := atomic.LoadInt32(&decoder.calls); n != 2 {
		t.Errorf("decode count = %d, want 2 after a distinct buffer", n)
	}
}

func TestGenerateFromBuffer_ExplicitID(t *testing.T) {
	decoder := &countingDecoder{}
	gen := waveform.NewGenerator(decoder, waveform.Options{Bars: 16})
	c := NewWaveformCache(gen, nil)

	c.GenerateFromBuffer(context.Background(), []byte("audio"), "t9", 0)
	if c.Cached("t9") == nil {
		t.Error("buffer generation did not cache under the given id")
	}
}

func TestInvalidate(t *testing.T) {
	store := newFakeStore()
	var fetches int32
	c := newTestCache(store, &fetches, nil, nil)

	c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)
	c.Invalidate(context.Background(), "t1")

	if c.Cached("t1") != nil {
		t.Error("Invalidate left the memory entry")
	}
	store.mu.Lock()
	deletes := store.deletes
	store.mu.Unlock()
	if deletes != 1 {
		t.Errorf("store deletes = %d, want 1", deletes)
	}

	c.Generate(context.Background(), "https://blobs/a.mp3", "t1", 0)
	if n := atomic.LoadInt32(&fetches); n != 2 {
		t.Errorf("fetch count = %d, want 2 after invalidation", n)
	}
}

func TestCached_Miss(t *testing.T) {
	c := NewWaveformCache(waveform.NewGenerator(&countingDecoder{}, waveform.Options{}), nil)
	if c.Cached("nope") != nil {
		t.Error("Cached returned an entry for an unknown id")
	}
}
