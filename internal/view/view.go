// Package view derives the item list the user sees from the store.
package view

import (
	"context"
	"sync"

	"github.com/erazemk/garderoba/internal/events"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// Filter is the list filter flag.
type Filter struct {
	OnlyInLaundry bool
}

// Apply returns the items visible under f, in their original order.
func Apply(items []model.Item, f Filter) []model.Item {
	visible := make([]model.Item, 0, len(items))
	for _, item := range items {
		if !f.OnlyInLaundry || item.IsInLaundry {
			visible = append(visible, item)
		}
	}
	return visible
}

// Source is the part of the item store a projection reads from.
type Source interface {
	ListItems(ctx context.Context, order store.Order) ([]model.Item, error)
	Subscribe(fn func(events.Change)) func()
}

// Projection is the filtered, sorted item list. Nothing is cached: every
// read queries the store again.
type Projection struct {
	Source Source
	Filter Filter
	Order  store.Order
}

// Items returns the currently visible items.
func (p *Projection) Items(ctx context.Context) ([]model.Item, error) {
	items, err := p.Source.ListItems(ctx, p.Order)
	if err != nil {
		return nil, err
	}
	return Apply(items, p.Filter), nil
}

// Watch calls fn with the visible items after every store change until ctx is
// done or the returned stop function is called. Errors while re-deriving the
// list are passed to fn with a nil slice.
func (p *Projection) Watch(ctx context.Context, fn func([]model.Item, error)) (stop func()) {
	unsubscribe := p.Source.Subscribe(func(events.Change) {
		if ctx.Err() != nil {
			return
		}
		fn(p.Items(ctx))
	})

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			unsubscribe()
		})
	}
}
