package prefs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jvetere1999/passion-os-sub009/core/player"
	"github.com/jvetere1999/passion-os-sub009/model"
)

func eventually(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func storedQueue(t *testing.T, store *memStore, userID int64) *model.QueueStorage {
	t.Helper()
	raw, ok := store.Get(QueueKey(userID))
	if !ok {
		return nil
	}
	var payload model.QueueStorage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("stored queue does not parse: %v", err)
	}
	return &payload
}

func newSyncedPlayer(t *testing.T, store *memStore, debounce time.Duration) (*player.Player, *Syncer) {
	t.Helper()
	p := player.NewPlayer(player.Options{})
	s := NewSyncer(p, NewSettingsStore(store, 1), NewQueueStore(store, 1), debounce)
	s.Start()
	t.Cleanup(func() {
		s.Stop()
		p.Close()
	})
	return p, s
}

func TestSyncer_PersistsSettingsChange(t *testing.T) {
	store := newMemStore()
	p, _ := newSyncedPlayer(t, store, 30*time.Millisecond)

	p.UpdateSettings(func(s *model.PlayerSettings) { s.Volume = 0.4 })

	eventually(t, time.Second, "settings write", func() bool {
		_, ok := store.Get(SettingsKey(1))
		return ok
	})
	got := NewSettingsStore(store, 1).Load()
	if got.Volume != 0.4 {
		t.Errorf("persisted volume = %v, want 0.4", got.Volume)
	}
}

func TestSyncer_QueueChangeWritesThrough(t *testing.T) {
	store := newMemStore()
	p, _ := newSyncedPlayer(t, store, time.Hour) // debounce must not be involved

	p.SetQueue(queueTracks(2), 1)

	eventually(t, time.Second, "queue write", func() bool {
		return storedQueue(t, store, 1) != nil
	})
	payload := storedQueue(t, store, 1)
	if len(payload.Queue) != 2 || payload.QueueIndex != 1 {
		t.Errorf("persisted queue = %d tracks, index %d; want 2, 1", len(payload.Queue), payload.QueueIndex)
	}
	if payload.Version != model.QueueStorageVersion {
		t.Errorf("persisted version = %d, want %d", payload.Version, model.QueueStorageVersion)
	}
}

func TestSyncer_PositionTicksDebounce(t *testing.T) {
	store := newMemStore()
	p, _ := newSyncedPlayer(t, store, 100*time.Millisecond)

	p.SetQueue(queueTracks(1), 0)
	eventually(t, time.Second, "queue write", func() bool {
		return storedQueue(t, store, 1) != nil
	})

	p.UpdateTime(5)
	if payload := storedQueue(t, store, 1); payload.CurrentTime != 0 {
		t.Errorf("position write was not debounced: stored time %v", payload.CurrentTime)
	}

	eventually(t, time.Second, "debounced position write", func() bool {
		return storedQueue(t, store, 1).CurrentTime == 5
	})
}

func TestSyncer_StopFlushesPendingWrite(t *testing.T) {
	store := newMemStore()
	p := player.NewPlayer(player.Options{})
	s := NewSyncer(p, NewSettingsStore(store, 1), NewQueueStore(store, 1), time.Hour)
	s.Start()

	p.SetQueue(queueTracks(1), 0)
	eventually(t, time.Second, "queue write", func() bool {
		return storedQueue(t, store, 1) != nil
	})

	p.UpdateTime(7)
	eventually(t, time.Second, "tick reaching the syncer", func() bool {
		return p.State().CurrentTime == 7
	})
	// Give the syncer loop a moment to move the tick into the debouncer.
	time.Sleep(50 * time.Millisecond)

	s.Stop()
	p.Close()

	payload := storedQueue(t, store, 1)
	if payload == nil || payload.CurrentTime != 7 {
		t.Errorf("stored time after Stop = %+v, want the flushed 7", payload)
	}
}

func TestSyncer_RestoredStateIsBaselineOnly(t *testing.T) {
	store := newMemStore()
	p := player.NewPlayer(player.Options{})
	p.SetQueue(queueTracks(2), 0)

	s := NewSyncer(p, NewSettingsStore(store, 1), NewQueueStore(store, 1), 30*time.Millisecond)
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
	p.Close()

	if n := store.setCount(); n != 0 {
		t.Errorf("writes = %d, want 0 for a syncer that only observed its baseline", n)
	}
}
