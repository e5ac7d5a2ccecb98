// Package laundry holds the laundry state transitions of an item and applies
// them through the item store.
//
// An item is either in the laundry or not. Toggle flips the flag and counts
// every entry into the laundry; leaving does not count. Finish only ever
// takes an item out of the laundry, so applying it to the visible set after
// a filter change cannot put anything back in.
//
// Service applies the same rules to stored items through the store's
// single-statement transitions, so concurrent requests cannot overwrite each
// other's counts.
package laundry

import (
	"context"
	"errors"

	"github.com/erazemk/garderoba/internal/metrics"
	"github.com/erazemk/garderoba/internal/model"
)

// Toggle flips whether item is in the laundry. Only the false to true
// transition increments TimesInLaundry.
func Toggle(item *model.Item) {
	item.IsInLaundry = !item.IsInLaundry
	if item.IsInLaundry {
		item.TimesInLaundry++
	}
}

// Finish takes item out of the laundry and reports whether it was in.
// The counter is never touched.
func Finish(item *model.Item) bool {
	if !item.IsInLaundry {
		return false
	}
	item.IsInLaundry = false
	return true
}

// Store is the part of the item store the transitions need. Both methods
// apply the transition to the stored row in one step, never to a copy the
// caller loaded earlier.
type Store interface {
	ToggleLaundry(ctx context.Context, id string) (*model.Item, error)
	FinishLaundry(ctx context.Context, id string) (bool, error)
}

// Service applies transitions and commits each affected item on its own.
type Service struct {
	Store   Store
	Metrics *metrics.Metrics
}

// ToggleItem toggles the stored item and returns its new state.
func (s *Service) ToggleItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := s.Store.ToggleLaundry(ctx, id)
	if err != nil {
		s.Metrics.Failure(err)
		return nil, err
	}

	if item.IsInLaundry {
		s.Metrics.LaundryEntered()
	}
	return item, nil
}

// BatchResult reports what MarkAllFinished did to each item.
type BatchResult struct {
	Finished []string
	Skipped  []string
	Failed   map[string]error
}

// MarkAllFinished takes every given item out of the laundry. The items only
// name what to finish: whether an item is in the laundry is decided by the
// store at write time, so a stale list can neither skip an item that went
// back in nor touch any counter. Items found out of the laundry are
// skipped. Each save is independent: a failure is recorded and the
// remaining items are still processed, and items saved before the failure
// stay saved. The returned error joins every failure and is nil when all
// saves succeeded.
//
// Every item in the slice is marked out of the laundry, including items
// whose save failed.
func (s *Service) MarkAllFinished(ctx context.Context, items []model.Item) (*BatchResult, error) {
	result := &BatchResult{Failed: make(map[string]error)}

	var errs []error
	for i := range items {
		item := &items[i]
		Finish(item)

		finished, err := s.Store.FinishLaundry(ctx, item.ID)
		if err != nil {
			result.Failed[item.ID] = err
			errs = append(errs, err)
			continue
		}
		if finished {
			result.Finished = append(result.Finished, item.ID)
		} else {
			result.Skipped = append(result.Skipped, item.ID)
		}
	}

	s.Metrics.Finished(len(result.Finished))
	err := errors.Join(errs...)
	s.Metrics.Failure(err)
	return result, err
}
