// Package eventbus fans planner events out to in-process observers.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event is any value published on the bus.
type Event any

// EventBus is the publish/subscribe surface used by producers and observers.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 8

// Option configures a Bus.
type Option func(*Bus)

// WithBuffer sets the per-subscriber channel capacity. Values below one
// are ignored.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// Bus delivers every event to each subscriber without blocking the
// publisher. Events for a full subscriber are dropped and counted.
type Bus struct {
	mu      sync.RWMutex
	subs    []chan Event
	closed  bool
	buffer  int
	dropped atomic.Uint64
}

// New creates a Bus.
func New(opts ...Option) *Bus {
	b := &Bus{buffer: DefaultBuffer}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Publish offers e to every subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber
// was full.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Subscribe returns a new subscriber channel. On a closed bus the channel
// is returned already closed.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe detaches sub and closes it.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch != sub {
			continue
		}
		b.subs = append(b.subs[:i], b.subs[i+1:]...)
		close(ch)
		return
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
