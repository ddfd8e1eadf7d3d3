// Package eventbus fans scheduler lifecycle events out to observers
// (history store, notifier, systemd readiness) without coupling them to the scheduler.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the scheduler.
const (
	TypeArmed          = "trigger.armed"
	TypeTick           = "trigger.tick"
	TypeListingFailed  = "trigger.listing_failed"
	TypeFired          = "trigger.fired"
	TypeShutdownFailed = "trigger.shutdown_failed"
	TypeStopped        = "trigger.stopped"
)

// Event is a small in-memory signal.
//
// Publish never blocks; a subscriber whose buffer is full misses the event.
type Event struct {
	Type string
	Time time.Time
	Data TriggerInfo
}

// TriggerInfo describes the armed trigger at the time of the event.
type TriggerInfo struct {
	Kind    string        `json:"kind"`
	Summary string        `json:"summary"`
	Tick    uint64        `json:"tick,omitempty"`
	Lead    time.Duration `json:"lead,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory fanout bus. It owns no goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Hold the read lock while sending: unsubscribe closes under the write
	// lock, so a send never races a close. Sends are non-blocking.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}
