// Package events is the in-process change feed for stored items. The item
// store publishes one Change after every committed mutation and observers
// re-derive whatever they display from the store.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what happened to an item.
type Kind string

// Change kinds.
const (
	ItemCreated Kind = "item.created"
	ItemUpdated Kind = "item.updated"
	ItemDeleted Kind = "item.deleted"
)

// Change describes one committed mutation.
type Change struct {
	ID     string    `json:"id"`
	Kind   Kind      `json:"kind"`
	ItemID string    `json:"item_id"`
	At     time.Time `json:"at"`
}

type subscriber struct {
	id int
	fn func(Change)
}

// Bus fans changes out to subscribers. Subscribers are called synchronously,
// in subscription order, on the goroutine that published the change.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscriber
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(fn func(Change)) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish records a change for itemID and delivers it to every subscriber.
// The subscriber list is copied first so callbacks may unsubscribe.
func (b *Bus) Publish(kind Kind, itemID string) Change {
	c := Change{
		ID:     uuid.NewString(),
		Kind:   kind,
		ItemID: itemID,
		At:     time.Now().UTC(),
	}

	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(c)
	}
	return c
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
