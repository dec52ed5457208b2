package box

import (
	"sync"

	"github.com/google/uuid"
)

// subscription represents a subscriber's tag event channel.
type subscription struct {
	id string
	ch chan string
}

// TagBroadcaster fans raw tag-changed ids out to subscribers. It is
// decoupled from the playback path: a slow subscriber loses events
// instead of delaying playback.
type TagBroadcaster struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewTagBroadcaster creates an empty broadcaster.
func NewTagBroadcaster() *TagBroadcaster {
	return &TagBroadcaster{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a subscriber and returns its subscription ID and channel.
func (b *TagBroadcaster) Subscribe() (string, <-chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	sub := &subscription{id: id, ch: make(chan string, 4)}
	b.subscriptions[id] = sub
	return id, sub.ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *TagBroadcaster) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscriptions[subscriptionID]; ok {
		delete(b.subscriptions, subscriptionID)
		close(sub.ch)
	}
}

// Broadcast delivers a tag id to all subscribers without blocking.
func (b *TagBroadcaster) Broadcast(tagID string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscriptions {
		select {
		case sub.ch <- tagID:
		default:
			// Subscriber is not keeping up, drop the event
		}
	}
}

// Count returns the number of subscribers.
func (b *TagBroadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
