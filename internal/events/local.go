package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 32

type subscription struct {
	ch    chan Event
	kinds map[Kind]bool
	once  sync.Once
}

func (s *subscription) wants(k Kind) bool {
	return len(s.kinds) == 0 || s.kinds[k]
}

func (s *subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// LocalBus fans events out to in-process subscribers. Events for a subscriber
// whose buffer is full are dropped.
type LocalBus struct {
	mu      sync.RWMutex
	subs    map[int]*subscription
	nextID  int
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// NewLocalBus returns a bus with DefaultBuffer-sized subscriber channels.
func NewLocalBus() *LocalBus {
	return NewLocalBusWithBuffer(DefaultBuffer)
}

// NewLocalBusWithBuffer returns a bus whose subscriber channels hold buffer events.
func NewLocalBusWithBuffer(buffer int) *LocalBus {
	if buffer < 1 {
		buffer = 1
	}
	return &LocalBus{subs: make(map[int]*subscription), buffer: buffer}
}

// Publish never blocks and never fails on an open bus.
func (b *LocalBus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, s := range b.subs {
		if !s.wants(e.Kind) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(kinds ...Kind) (<-chan Event, func()) {
	s := &subscription{ch: make(chan Event, b.buffer), kinds: make(map[Kind]bool, len(kinds))}
	for _, k := range kinds {
		s.kinds[k] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.close()
		return s.ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = s

	return s.ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		s.close()
	}
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *LocalBus) Dropped() int64 {
	return b.dropped.Load()
}

// Close ends every subscription.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, s := range b.subs {
		s.close()
		delete(b.subs, id)
	}
	return nil
}
