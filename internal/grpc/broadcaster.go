package grpc

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

const subscriberBuffer = 100

// Match selects the alerts a subscriber wants. A nil Match takes everything.
type Match func(a *models.Alert) bool

type subscriber struct {
	ch      chan *models.Alert
	match   Match
	dropped atomic.Uint64
}

// Broadcaster fans new alerts out to stream subscribers. Sends never block:
// a subscriber whose buffer is full misses the alert.
type Broadcaster struct {
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]*subscriber),
	}
}

func (b *Broadcaster) Subscribe(match Match) (uint64, chan *models.Alert) {
	id := b.nextID.Add(1)
	sub := &subscriber{
		ch:    make(chan *models.Alert, subscriberBuffer),
		match: match,
	}

	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	return id, sub.ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		if n := sub.dropped.Load(); n > 0 {
			slog.Warn("stream subscriber missed alerts", "subscriber_id", id, "dropped", n)
		}
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

func (b *Broadcaster) Broadcast(a *models.Alert) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.match != nil && !sub.match(a) {
			continue
		}
		select {
		case sub.ch <- a:
		default:
			sub.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}
