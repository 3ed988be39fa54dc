package prefs

import (
	"time"

	"github.com/jvetere1999/passion-os-sub009/core/player"
	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// Syncer drives persistence by observing the player: queue and settings
// changes write through immediately, position ticks coalesce through
// the debouncer. The player itself never performs I/O.
type Syncer struct {
	player    *player.Player
	settings  *SettingsStore
	queue     *QueueStore
	debouncer *Debouncer

	ch   <-chan model.PlayerState
	done chan struct{}
}

// NewSyncer wires a player to its persistence stores.
func NewSyncer(p *player.Player, settings *SettingsStore, queue *QueueStore, debounceInterval time.Duration) *Syncer {
	return &Syncer{
		player:    p,
		settings:  settings,
		queue:     queue,
		debouncer: NewDebouncer(debounceInterval),
		done:      make(chan struct{}),
	}
}

// Start subscribes and begins persisting transitions.
func (s *Syncer) Start() {
	s.ch = s.player.Subscribe()
	go s.run()
}

// Stop detaches from the player and flushes any pending debounced
// write so durability doesn't depend on the timer at shutdown.
func (s *Syncer) Stop() {
	s.player.Unsubscribe(s.ch)
	<-s.done
	s.debouncer.Flush()
}

func (s *Syncer) run() {
	defer close(s.done)

	var last *model.PlayerState
	for state := range s.ch {
		if last != nil {
			s.apply(*last, state)
		}
		snapshot := state
		last = &snapshot
	}
}

// apply diffs two consecutive snapshots and writes what changed. The
// first snapshot after Subscribe is baseline only; restoring state is
// not a reason to write it back.
func (s *Syncer) apply(prev, state model.PlayerState) {
	if prev.Settings != state.Settings {
		if err := s.settings.Save(state.Settings); err != nil {
			logger.Error("failed to persist settings", logger.ErrorField(err))
		}
	}

	switch {
	case !sameQueue(prev.Queue, state.Queue) || prev.QueueIndex != state.QueueIndex:
		s.debouncer.Immediate(func() {
			s.saveQueue(state)
		})
	case prev.CurrentTime != state.CurrentTime:
		s.debouncer.Schedule(func() {
			s.saveQueue(state)
		})
	}
}

func (s *Syncer) saveQueue(state model.PlayerState) {
	if err := s.queue.Save(state.Queue, state.QueueIndex, state.CurrentTime); err != nil {
		logger.Error("failed to persist queue state", logger.ErrorField(err))
	}
}

func sameQueue(a, b []model.QueueTrack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
