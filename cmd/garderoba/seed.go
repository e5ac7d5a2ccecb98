package main

import (
	"context"
	"fmt"

	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

var sampleLabels = []string{
	"Hoodie",
	"Sweater",
	"Long Pants",
	"Short Pants",
	"T-Shirt",
	"Shirt",
	"Underwear",
}

// seedItems adds the sample wardrobe. Every other item starts in the laundry
// and the counters run from 0 upward; an item in the laundry has been put
// there at least once, so its counter is never below 1. The state is reached
// through ordinary toggles so the counters obey the same rules as real use.
func seedItems(ctx context.Context, s *store.Store) ([]*model.Item, error) {
	items := make([]*model.Item, 0, len(sampleLabels))
	for i, label := range sampleLabels {
		item, err := s.CreateItem(ctx, label, nil)
		if err != nil {
			return items, fmt.Errorf("creating %s: %w", label, err)
		}

		inLaundry := i%2 == 0
		times := i
		if inLaundry && times == 0 {
			times = 1
		}
		for range togglesFor(inLaundry, times) {
			if item, err = s.ToggleLaundry(ctx, item.ID); err != nil {
				return items, fmt.Errorf("toggling %s: %w", label, err)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// togglesFor returns how many toggles take a new item to the given state.
// Every entry into the laundry is one toggle in and, unless the item stays
// in, one toggle out.
func togglesFor(inLaundry bool, times int) int {
	if inLaundry {
		return 2*times - 1
	}
	return 2 * times
}
