package player

import "github.com/jvetere1999/passion-os-sub009/model"

// subscriberBuffer absorbs bursts of transitions; a subscriber that
// falls further behind misses intermediate snapshots, never the lock.
const subscriberBuffer = 16

// Subscribe returns a channel that receives a snapshot after every
// state transition, starting with the current state.
func (p *Player) Subscribe() <-chan model.PlayerState {
	ch := make(chan model.PlayerState, subscriberBuffer)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	ch <- p.snapshotLocked()
	p.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (p *Player) Unsubscribe(ch <-chan model.PlayerState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for sub := range p.subs {
		if sub == ch {
			delete(p.subs, sub)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for sub := range p.subs {
		close(sub)
	}
	p.subs = make(map[chan model.PlayerState]struct{})
}

// publishLocked fans the current snapshot out to every subscriber
// without blocking on any of them.
func (p *Player) publishLocked() {
	if len(p.subs) == 0 {
		return
	}
	state := p.snapshotLocked()
	for ch := range p.subs {
		select {
		case ch <- state:
		default:
			// Channel full, skip to prevent blocking.
		}
	}
}
