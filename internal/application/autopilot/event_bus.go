package autopilot

import (
	"sync"
	"sync/atomic"
)

// DefaultSubscriberBuffer is the channel size handed to subscribers that pass 0
const DefaultSubscriberBuffer = 64

// EventBus provides pub/sub for controller events.
// Thread-safe, supports any number of subscribers.
// Uses buffered channels and non-blocking sends so a slow subscriber
// never stalls a cycle; events it cannot take are dropped for it alone.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	dropped     atomic.Uint64
}

// Compile-time interface check
var _ StatusSink = (*EventBus)(nil)

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[int]chan Event),
	}
}

// Publish delivers the event to every subscriber without blocking
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
			// Event delivered
		default:
			// Channel full, subscriber is slow - skip to prevent blocking
			b.dropped.Add(1)
		}
	}
}

// Subscribe returns a channel receiving all future events and a function
// that removes the subscription and closes the channel.
func (b *EventBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *EventBus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// SubscriberCount returns the number of active subscribers.
// Useful for testing and monitoring.
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber was full
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}
