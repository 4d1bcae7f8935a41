package events

import (
	"context"
	"sync"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// MemoryBus fans events out to subscribers of this process. Events for a
// subscriber whose buffer is full are dropped.
type MemoryBus struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	buffer      int
	closed      bool
	dropped     int64
}

// NewMemoryBus creates an in-process bus. buffer is the per-subscriber
// channel size; 0 uses the default.
func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = constants.SmallBufferSize
	}

	return &MemoryBus{
		subscribers: make(map[chan Event]struct{}),
		buffer:      buffer,
	}
}

// Publish implements Bus.
func (b *MemoryBus) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.dropped++
		}
	}

	return nil
}

// Subscribe implements Bus.
func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	ch := make(chan Event, b.buffer)
	b.subscribers[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(ch)
	}()

	return ch, nil
}

func (b *MemoryBus) remove(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// Subscribers returns the number of open subscriptions.
func (b *MemoryBus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subscribers)
}

// Dropped returns the number of events dropped for slow subscribers.
func (b *MemoryBus) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// Close implements Bus. Subscriber channels are closed.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}

	return nil
}
