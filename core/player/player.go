// Package player is the in-memory playback state machine: queue,
// status, position and navigation driven by the repeat/autoplay/shuffle
// settings. The machine performs no I/O; persistence and transports
// observe it through subscriptions.
package player

import (
	"math"
	"math/rand"
	"sync"

	"github.com/jvetere1999/passion-os-sub009/model"
)

// DefaultRestartThreshold is how far into a track Previous() restarts
// it instead of moving back. The 3 second default is deliberate: it
// matches the common "go back to the start of this track" intent.
const DefaultRestartThreshold = 3.0

// Options configure a Player. Zero values take defaults.
type Options struct {
	RestartThreshold float64
	Settings         *model.PlayerSettings
}

// Player owns all playback state behind one mutex. Every transition
// publishes an immutable snapshot to subscribers.
type Player struct {
	mu          sync.Mutex
	queue       []model.QueueTrack
	index       int // -1 exactly when the queue is empty
	status      string
	currentTime float64
	duration    float64
	settings    model.PlayerSettings
	errMsg      string
	visible     bool

	// original order held while shuffle is active
	original []model.QueueTrack

	restartThreshold float64

	subs map[chan model.PlayerState]struct{}
}

// NewPlayer returns an idle player with an empty queue.
func NewPlayer(opts Options) *Player {
	p := &Player{
		index:            -1,
		status:           model.StatusIdle,
		settings:         model.DefaultSettings(),
		restartThreshold: opts.RestartThreshold,
		subs:             make(map[chan model.PlayerState]struct{}),
	}
	if opts.Settings != nil {
		p.settings = *opts.Settings
	}
	if p.restartThreshold <= 0 {
		p.restartThreshold = DefaultRestartThreshold
	}
	return p
}

// State returns the current snapshot.
func (p *Player) State() model.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// SetQueue replaces the queue and selects startIndex. The index is
// taken as given; an out-of-range start leaves no current track and
// the machine idle. An empty queue always lands on index -1.
func (p *Player) SetQueue(tracks []model.QueueTrack, startIndex int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = copyTracks(tracks)
	p.original = nil
	p.currentTime = 0
	p.errMsg = ""

	if len(p.queue) == 0 {
		p.index = -1
		p.status = model.StatusIdle
	} else {
		p.index = startIndex
		if p.trackAtLocked(startIndex) != nil {
			p.status = model.StatusLoading
		} else {
			p.status = model.StatusIdle
		}
	}
	p.publishLocked()
}

// SetTrackIndex jumps to the track at index. No-op when the index has
// no track.
func (p *Player) SetTrackIndex(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.trackAtLocked(index) == nil {
		return
	}
	p.loadTrackLocked(index)
	p.publishLocked()
}

// Next advances to the following track. Past the end it wraps only when
// repeat is "all"; otherwise playback stops paused on the current track
// instead of silently restarting.
func (p *Player) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextLocked()
	p.publishLocked()
}

func (p *Player) nextLocked() {
	if len(p.queue) == 0 {
		return
	}
	i := p.index + 1
	if i >= len(p.queue) {
		if p.settings.RepeatMode == model.RepeatAll {
			p.loadTrackLocked(0)
		} else {
			p.status = model.StatusPaused
		}
		return
	}
	p.loadTrackLocked(i)
}

// Previous restarts the current track when more than the restart
// threshold into it; otherwise it moves back, wrapping to the last
// track only when repeat is "all" and clamping to 0 otherwise.
func (p *Player) Previous() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return
	}
	if p.currentTime > p.restartThreshold {
		p.currentTime = 0
		p.publishLocked()
		return
	}

	i := p.index - 1
	if i < 0 {
		if p.settings.RepeatMode == model.RepeatAll {
			i = len(p.queue) - 1
		} else {
			i = 0
		}
	}
	p.loadTrackLocked(i)
	p.publishLocked()
}

// HandleEnded reacts to the current track finishing: repeat-one reloads
// it, autoplay advances, otherwise playback rests paused.
func (p *Player) HandleEnded() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return
	}
	switch {
	case p.settings.RepeatMode == model.RepeatOne:
		p.loadTrackLocked(p.index)
	case p.settings.AutoplayNext:
		p.nextLocked()
	default:
		p.status = model.StatusPaused
	}
	p.publishLocked()
}

// RestoreQueue is SetQueue for cold start: the index is clamped, the
// position is seeded, and the machine always comes up paused so restore
// never auto-plays.
func (p *Player) RestoreQueue(tracks []model.QueueTrack, startIndex int, startTime float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = copyTracks(tracks)
	p.original = nil
	p.errMsg = ""

	if len(p.queue) == 0 {
		p.index = -1
		p.status = model.StatusIdle
		p.currentTime = 0
		p.publishLocked()
		return
	}

	if startIndex >= len(p.queue) {
		startIndex = len(p.queue) - 1
	}
	if startIndex < 0 {
		startIndex = 0
	}
	p.index = startIndex
	p.status = model.StatusPaused
	if math.IsNaN(startTime) || math.IsInf(startTime, 0) || startTime < 0 {
		startTime = 0
	}
	p.currentTime = startTime
	p.publishLocked()
}

// ClearQueue empties the queue and returns to idle.
func (p *Player) ClearQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = nil
	p.original = nil
	p.index = -1
	p.status = model.StatusIdle
	p.currentTime = 0
	p.duration = 0
	p.errMsg = ""
	p.publishLocked()
}

// Play starts playback of the current track.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.trackAtLocked(p.index) == nil {
		return
	}
	p.status = model.StatusPlaying
	p.errMsg = ""
	p.publishLocked()
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != model.StatusPlaying && p.status != model.StatusLoading {
		return
	}
	p.status = model.StatusPaused
	p.publishLocked()
}

// Seek moves the position within the current track.
func (p *Player) Seek(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		t = 0
	}
	if p.duration > 0 && t > p.duration {
		t = p.duration
	}
	p.currentTime = t
	p.publishLocked()
}

// UpdateTime records the playback surface's position tick.
func (p *Player) UpdateTime(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return
	}
	p.currentTime = t
	p.publishLocked()
}

// SetDuration records the current track's duration once known.
func (p *Player) SetDuration(d float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		d = 0
	}
	p.duration = d
	p.publishLocked()
}

// SetError puts the machine into the error state.
func (p *Player) SetError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = model.StatusError
	p.errMsg = msg
	p.publishLocked()
}

// SetVisible records whether the playback surface is shown.
func (p *Player) SetVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.visible = visible
	p.publishLocked()
}

// UpdateSettings applies fn to the settings.
func (p *Player) UpdateSettings(fn func(*model.PlayerSettings)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn(&p.settings)
	p.publishLocked()
}

// SetShuffle toggles shuffle. Turning it on shuffles in place keeping
// the current track first and remembers the original order; turning it
// off restores that order and re-locates the current track.
func (p *Player) SetShuffle(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if on == p.settings.Shuffle {
		return
	}
	p.settings.Shuffle = on
	if on {
		p.shuffleLocked()
	} else {
		p.unshuffleLocked()
	}
	p.publishLocked()
}

func (p *Player) shuffleLocked() {
	if len(p.queue) <= 1 {
		return
	}
	if p.original == nil {
		p.original = copyTracks(p.queue)
	}

	var currentID string
	if t := p.trackAtLocked(p.index); t != nil {
		currentID = t.ID
	}

	for i := len(p.queue) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	}

	if currentID != "" {
		for i := range p.queue {
			if p.queue[i].ID == currentID {
				p.queue[0], p.queue[i] = p.queue[i], p.queue[0]
				break
			}
		}
		p.index = 0
	}
}

func (p *Player) unshuffleLocked() {
	if p.original == nil {
		return
	}

	var currentID string
	if t := p.trackAtLocked(p.index); t != nil {
		currentID = t.ID
	}

	p.queue = p.original
	p.original = nil

	if currentID != "" {
		for i := range p.queue {
			if p.queue[i].ID == currentID {
				p.index = i
				break
			}
		}
	}
}

// loadTrackLocked is every track change: new index, position zero,
// loading.
func (p *Player) loadTrackLocked(index int) {
	p.index = index
	p.currentTime = 0
	p.errMsg = ""
	p.status = model.StatusLoading
}

func (p *Player) trackAtLocked(index int) *model.QueueTrack {
	if index < 0 || index >= len(p.queue) {
		return nil
	}
	return &p.queue[index]
}

func (p *Player) snapshotLocked() model.PlayerState {
	state := model.PlayerState{
		Status:      p.status,
		CurrentTime: p.currentTime,
		Duration:    p.duration,
		Queue:       copyTracks(p.queue),
		QueueIndex:  p.index,
		Settings:    p.settings,
		Error:       p.errMsg,
		IsVisible:   p.visible,
	}
	if t := p.trackAtLocked(p.index); t != nil {
		track := *t
		state.CurrentTrack = &track
	}
	return state
}

func copyTracks(tracks []model.QueueTrack) []model.QueueTrack {
	if len(tracks) == 0 {
		return nil
	}
	out := make([]model.QueueTrack, len(tracks))
	copy(out, tracks)
	return out
}
