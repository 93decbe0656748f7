// Package eventbus is the in-process publish/subscribe bus modules use to
// coordinate. Delivery is synchronous, in subscription order, and stops at the
// first subscriber that returns false.
package eventbus

import (
	"log"
	"sync"
)

// Subscriber handles one event. Returning false vetoes the event: no later
// subscriber sees it and Publish reports failure.
type Subscriber func(Event) bool

// Bus holds the ordered subscriber list for each event kind.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Kind][]Subscriber
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[Kind][]Subscriber),
	}
}

// Subscribe appends fn to the subscriber list for kind.
// There is no duplicate detection and no unsubscribe.
func (b *Bus) Subscribe(kind Kind, fn Subscriber) {
	if !kind.Valid() || fn == nil {
		log.Printf("[EventBus] Ignoring subscription to %s (subscriber nil=%v)", kind, fn == nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], fn)
}

// Publish delivers ev to every subscriber of its kind in subscription order.
// Returns false if the event is invalid, nobody subscribes to its kind, or a
// subscriber vetoes it.
func (b *Bus) Publish(ev Event) bool {
	if err := ev.Validate(); err != nil {
		log.Printf("[EventBus] Rejected event: %v", err)
		return false
	}

	// Snapshot so subscribers may subscribe while being called.
	b.mu.RLock()
	subs := b.subscribers[ev.Kind]
	snapshot := make([]Subscriber, len(subs))
	copy(snapshot, subs)
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		log.Printf("[EventBus] No subscribers for event: %s", ev.Kind)
		return false
	}

	for _, fn := range snapshot {
		if !fn(ev) {
			log.Printf("[EventBus] Event %s handling stopped by a subscriber", ev.Kind)
			return false
		}
	}
	return true
}

// SubscriberCount returns how many subscribers kind has.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[kind])
}
