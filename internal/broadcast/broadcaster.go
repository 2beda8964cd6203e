// Package broadcast fans rendered frames out to every subscriber.
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/trailmap/trail-explorer/internal/render"
)

const DefaultBuffer = 16

type subscriber struct {
	ch       chan render.Frame
	blocking bool
	quit     chan struct{}
	quitOnce sync.Once
}

func (s *subscriber) stop() {
	s.quitOnce.Do(func() { close(s.quit) })
}

type Broadcaster struct {
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
	buffer      int
	dropped     atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subscribers: make(map[uint64]*subscriber),
		buffer:      buffer,
	}
}

// Subscribe registers a lossy subscriber: frames that find its buffer full
// are dropped.
func (b *Broadcaster) Subscribe() (uint64, <-chan render.Frame) {
	return b.subscribe(false)
}

// SubscribeBlocking registers a subscriber that never loses frames. Publish
// waits for it to make room, so it must keep reading until it unsubscribes or
// the broadcaster closes.
func (b *Broadcaster) SubscribeBlocking() (uint64, <-chan render.Frame) {
	return b.subscribe(true)
}

func (b *Broadcaster) subscribe(blocking bool) (uint64, <-chan render.Frame) {
	id := b.nextID.Add(1)
	s := &subscriber{
		ch:       make(chan render.Frame, b.buffer),
		blocking: blocking,
		quit:     make(chan struct{}),
	}

	b.mu.Lock()
	b.subscribers[id] = s
	b.mu.Unlock()

	return id, s.ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.RLock()
	s, ok := b.subscribers[id]
	b.mu.RUnlock()
	if !ok {
		return
	}
	// Release any Publish waiting on this subscriber before taking the write lock.
	s.stop()

	b.mu.Lock()
	if _, ok := b.subscribers[id]; ok {
		close(s.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Publish delivers f to every subscriber. Lossy subscribers with a full
// buffer miss the frame; blocking subscribers are waited for.
func (b *Broadcaster) Publish(f render.Frame) {
	b.PublishContext(context.Background(), f)
}

// PublishContext is Publish, except that waiting on blocking subscribers ends
// when ctx does. A frame abandoned that way counts as dropped.
func (b *Broadcaster) PublishContext(ctx context.Context, f render.Frame) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subscribers {
		if !s.blocking {
			select {
			case s.ch <- f:
			default:
				b.dropped.Add(1)
			}
			continue
		}
		select {
		case s.ch <- f:
		case <-s.quit:
			b.dropped.Add(1)
		case <-ctx.Done():
			b.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels so readers drain and exit.
func (b *Broadcaster) Close() {
	b.mu.RLock()
	for _, s := range b.subscribers {
		s.stop()
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.subscribers {
		close(s.ch)
		delete(b.subscribers, id)
	}
}
