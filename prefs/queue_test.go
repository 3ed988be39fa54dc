package prefs

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/jvetere1999/passion-os-sub009/model"
)

func queueTracks(n int) []model.QueueTrack {
	out := make([]model.QueueTrack, n)
	for i := range out {
		out[i] = model.QueueTrack{
			ID:       fmt.Sprintf("t%d", i+1),
			Title:    fmt.Sprintf("Track %d", i+1),
			Artist:   "Artist",
			AudioURL: fmt.Sprintf("https://blobs/t%d.mp3", i+1),
			Duration: 180,
			Waveform: []float64{0.1, 0.9},
		}
	}
	return out
}

// rawQueuePayload builds a persisted blob by hand so tests can bend the
// shape in ways Save never would.
func rawQueuePayload(version int, queue string, index, updatedAt string) string {
	return fmt.Sprintf(`{"version":%d,"queue":%s,"queueIndex":%s,"currentTime":12.5,"updatedAt":%s}`,
		version, queue, index, updatedAt)
}

func freshStamp() string {
	return fmt.Sprintf("%d", time.Now().UnixMilli())
}

func TestQueueKey(t *testing.T) {
	if got := QueueKey(7); got != "player:7:queue" {
		t.Errorf("QueueKey(7) = %q", got)
	}
}

func TestQueueStore_SaveThenLoad(t *testing.T) {
	s := NewQueueStore(newMemStore(), 1)
	tracks := queueTracks(3)

	if err := s.Save(tracks, 1, 42.5); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load()
	if got == nil {
		t.Fatal("Load = nil after Save")
	}
	if len(got.Queue) != 3 || got.QueueIndex != 1 || got.CurrentTime != 42.5 {
		t.Errorf("restored = %d tracks, index %d, time %v; want 3, 1, 42.5",
			len(got.Queue), got.QueueIndex, got.CurrentTime)
	}
	for i, tr := range got.Queue {
		if tr.ID != tracks[i].ID || tr.Title != tracks[i].Title || tr.AudioURL != tracks[i].AudioURL {
			t.Errorf("track %d = %+v, want %+v", i, tr, tracks[i])
		}
		if tr.Waveform != nil {
			t.Errorf("track %d kept its transient waveform through persistence", i)
		}
	}
}

func TestQueueStore_SaveEmptyDeletes(t *testing.T) {
	store := newMemStore()
	s := NewQueueStore(store, 1)
	if err := s.Save(queueTracks(1), 0, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Save(nil, 0, 0); err != nil {
		t.Fatalf("Save(empty): %v", err)
	}
	if _, ok := store.Get(QueueKey(1)); ok {
		t.Error("empty save left a persisted entry")
	}
}

func TestQueueStore_SaveSanitizesTime(t *testing.T) {
	tests := []struct {
		name string
		time float64
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"negative", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewQueueStore(newMemStore(), 1)
			if err := s.Save(queueTracks(1), 0, tt.time); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got := s.Load()
			if got == nil || got.CurrentTime != 0 {
				t.Errorf("restored time = %+v, want 0", got)
			}
		})
	}
}

func TestQueueStore_LoadMissing(t *testing.T) {
	if got := NewQueueStore(newMemStore(), 1).Load(); got != nil {
		t.Errorf("Load on empty store = %+v, want nil", got)
	}
}

func TestQueueStore_LoadExpired(t *testing.T) {
	store := newMemStore()
	s := NewQueueStore(store, 1)
	if err := s.Save(queueTracks(2), 0, 5); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Age the entry past the TTL by rewriting its stamp.
	raw, _ := store.Get(QueueKey(1))
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal stored payload: %v", err)
	}
	payload["updatedAt"] = time.Now().Add(-25 * time.Hour).UnixMilli()
	aged, _ := json.Marshal(payload)
	store.put(QueueKey(1), string(aged))

	if got := s.Load(); got != nil {
		t.Errorf("Load of a 25h-old queue = %+v, want nil", got)
	}
	if _, ok := store.Get(QueueKey(1)); ok {
		t.Error("expired entry not purged")
	}
}

func TestQueueStore_LoadStructurallyInvalid(t *testing.T) {
	valid := `[{"id":"t1","title":"One","audioUrl":"https://blobs/t1.mp3"}]`
	tests := []struct {
		name string
		raw  string
	}{
		{"corrupt JSON", `{"version":1,"queue":[`},
		{"wrong version", rawQueuePayload(99, valid, "0", freshStamp())},
		{"missing version", `{"queue":[],"queueIndex":0,"updatedAt":` + freshStamp() + `}`},
		{"queue not an array", rawQueuePayload(1, `"strings"`, "0", freshStamp())},
		{"missing queue", `{"version":1,"queueIndex":0,"updatedAt":` + freshStamp() + `}`},
		{"index not numeric", rawQueuePayload(1, valid, `"first"`, freshStamp())},
		{"missing stamp", `{"version":1,"queue":` + valid + `,"queueIndex":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.put(QueueKey(1), tt.raw)
			s := NewQueueStore(store, 1)

			if got := s.Load(); got != nil {
				t.Errorf("Load = %+v, want nil", got)
			}
			if _, ok := store.Get(QueueKey(1)); ok {
				t.Error("invalid entry not purged")
			}
		})
	}
}

func TestQueueStore_DropsInvalidTracks(t *testing.T) {
	queue := `[
		{"id":"t1","title":"Keep","audioUrl":"https://blobs/t1.mp3"},
		{"id":"t2","title":"No URL"},
		{"id":3,"title":"Bad ID","audioUrl":"https://blobs/t3.mp3"},
		{"id":"t4","title":"Also keep","audioUrl":"https://blobs/t4.mp3"}
	]`
	store := newMemStore()
	store.put(QueueKey(1), rawQueuePayload(1, queue, "3", freshStamp()))
	s := NewQueueStore(store, 1)

	got := s.Load()
	if got == nil {
		t.Fatal("Load = nil, want the surviving tracks")
	}
	if len(got.Queue) != 2 || got.Queue[0].ID != "t1" || got.Queue[1].ID != "t4" {
		t.Errorf("survivors = %+v, want t1 and t4", got.Queue)
	}
	if got.QueueIndex != 1 {
		t.Errorf("index = %d, want re-clamped to 1", got.QueueIndex)
	}
}

func TestQueueStore_AllTracksInvalid(t *testing.T) {
	store := newMemStore()
	store.put(QueueKey(1), rawQueuePayload(1, `[{"id":"t1"},{"title":"x"}]`, "0", freshStamp()))
	s := NewQueueStore(store, 1)

	if got := s.Load(); got != nil {
		t.Errorf("Load = %+v, want nil when nothing survives", got)
	}
	if _, ok := store.Get(QueueKey(1)); ok {
		t.Error("entry with no surviving tracks not purged")
	}
}

func TestQueueStore_LoadClampsIndex(t *testing.T) {
	valid := `[{"id":"t1","title":"One","audioUrl":"https://blobs/t1.mp3"},
		{"id":"t2","title":"Two","audioUrl":"https://blobs/t2.mp3"}]`
	tests := []struct {
		name  string
		index string
		want  int
	}{
		{"past the end", "9", 1},
		{"negative", "-4", 0},
		{"fractional", "1.9", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.put(QueueKey(1), rawQueuePayload(1, valid, tt.index, freshStamp()))
			s := NewQueueStore(store, 1)

			got := s.Load()
			if got == nil {
				t.Fatal("Load = nil")
			}
			if got.QueueIndex != tt.want {
				t.Errorf("index = %d, want %d", got.QueueIndex, tt.want)
			}
		})
	}
}

func TestQueueStore_LoadNullCurrentTime(t *testing.T) {
	store := newMemStore()
	store.put(QueueKey(1),
		`{"version":1,"queue":[{"id":"t1","title":"One","audioUrl":"https://blobs/t1.mp3"}],"queueIndex":0,"currentTime":null,"updatedAt":`+freshStamp()+`}`)
	s := NewQueueStore(store, 1)

	got := s.Load()
	if got == nil {
		t.Fatal("Load = nil, want null time tolerated")
	}
	if got.CurrentTime != 0 {
		t.Errorf("time = %v, want 0", got.CurrentTime)
	}
}

func TestQueueStore_Clear(t *testing.T) {
	store := newMemStore()
	s := NewQueueStore(store, 1)
	if err := s.Save(queueTracks(1), 0, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := s.Load(); got != nil {
		t.Errorf("Load after Clear = %+v, want nil", got)
	}
}
