package laundry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/erazemk/garderoba/internal/db"
	"github.com/erazemk/garderoba/internal/metrics"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

func TestToggleCountsEntriesOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		item := &model.Item{IsInLaundry: rng.Intn(2) == 0}
		start := item.IsInLaundry

		n := rng.Intn(40)
		entries := 0
		for i := 0; i < n; i++ {
			before := item.IsInLaundry
			Toggle(item)
			if !before && item.IsInLaundry {
				entries++
			}
		}

		if item.TimesInLaundry != entries {
			t.Fatalf("run %d: after %d toggles counter = %d, want %d", run, n, item.TimesInLaundry, entries)
		}
		if want := start != (n%2 == 1); item.IsInLaundry != want {
			t.Fatalf("run %d: flag = %v after %d toggles from %v", run, item.IsInLaundry, n, start)
		}
	}
}

func TestToggleTwice(t *testing.T) {
	tests := []struct {
		name      string
		start     bool
		wantCount int
	}{
		{"from clean", false, 1},
		{"from laundry", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &model.Item{IsInLaundry: tt.start}
			Toggle(item)
			Toggle(item)
			if item.IsInLaundry != tt.start {
				t.Errorf("flag = %v, want %v", item.IsInLaundry, tt.start)
			}
			if item.TimesInLaundry != tt.wantCount {
				t.Errorf("counter = %d, want %d", item.TimesInLaundry, tt.wantCount)
			}
		})
	}
}

func TestFinish(t *testing.T) {
	item := &model.Item{IsInLaundry: true, TimesInLaundry: 4}
	if !Finish(item) {
		t.Error("expected Finish to report a change")
	}
	if item.IsInLaundry || item.TimesInLaundry != 4 {
		t.Errorf("unexpected state after Finish: %+v", item)
	}

	if Finish(item) {
		t.Error("expected Finish on a clean item to report no change")
	}
	if item.IsInLaundry {
		t.Error("Finish must never put an item into the laundry")
	}
}

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s := store.New(db.NewTestDB(t))
	return &Service{Store: s}, s
}

func TestToggleItemScenario(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	hoodie, _ := s.CreateItem(ctx, "Hoodie", nil)

	item, err := svc.ToggleItem(ctx, hoodie.ID)
	if err != nil {
		t.Fatalf("ToggleItem: %v", err)
	}
	if !item.IsInLaundry || item.TimesInLaundry != 1 {
		t.Errorf("after first toggle: %+v", item)
	}

	item, err = svc.ToggleItem(ctx, hoodie.ID)
	if err != nil {
		t.Fatalf("ToggleItem: %v", err)
	}
	if item.IsInLaundry || item.TimesInLaundry != 1 {
		t.Errorf("after second toggle: %+v", item)
	}

	stored, _ := s.GetItem(ctx, hoodie.ID)
	if stored.IsInLaundry || stored.TimesInLaundry != 1 {
		t.Errorf("stored state: %+v", stored)
	}
	if stored.Label != "Hoodie" || !stored.Timestamp.Equal(hoodie.Timestamp) {
		t.Errorf("toggle changed label or timestamp: %+v", stored)
	}
}

func TestToggleItemMatchesToggle(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(11))

	created, _ := s.CreateItem(ctx, "Sweater", nil)
	want := *created

	for i := 0; i < 60; i++ {
		Toggle(&want)
		got, err := svc.ToggleItem(ctx, created.ID)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if got.IsInLaundry != want.IsInLaundry || got.TimesInLaundry != want.TimesInLaundry {
			t.Fatalf("toggle %d: stored in=%v times=%d, want in=%v times=%d",
				i, got.IsInLaundry, got.TimesInLaundry, want.IsInLaundry, want.TimesInLaundry)
		}
		if rng.Intn(4) == 0 {
			if _, err := svc.MarkAllFinished(ctx, []model.Item{*got}); err != nil {
				t.Fatalf("finish after toggle %d: %v", i, err)
			}
			Finish(&want)
		}
	}
}

func TestConcurrentToggles(t *testing.T) {
	tests := []struct {
		name       string
		goroutines int
		perWorker  int
	}{
		{"two workers", 2, 25},
		{"eight workers", 8, 25},
		{"many workers", 50, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, s := newService(t)
			ctx := context.Background()
			item, _ := s.CreateItem(ctx, "Socks", nil)

			var wg sync.WaitGroup
			errs := make(chan error, tt.goroutines*tt.perWorker)
			for g := 0; g < tt.goroutines; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < tt.perWorker; i++ {
						if _, err := svc.ToggleItem(ctx, item.ID); err != nil {
							errs <- err
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("ToggleItem: %v", err)
			}

			// From clean, every second toggle is an entry into the laundry.
			total := tt.goroutines * tt.perWorker
			got, _ := s.GetItem(ctx, item.ID)
			if got.TimesInLaundry != (total+1)/2 {
				t.Errorf("after %d toggles: times = %d, want %d", total, got.TimesInLaundry, (total+1)/2)
			}
			if got.IsInLaundry != (total%2 == 1) {
				t.Errorf("after %d toggles: in laundry = %v", total, got.IsInLaundry)
			}
		})
	}
}

func TestToggleUnknownItem(t *testing.T) {
	m := metrics.New()
	svc := &Service{Store: store.New(db.NewTestDB(t)), Metrics: m}

	item, err := svc.ToggleItem(context.Background(), "missing")
	var perr *store.PersistenceError
	if !errors.As(err, &perr) || !errors.Is(err, store.ErrItemNotFound) {
		t.Errorf("expected not-found PersistenceError, got %v", err)
	}
	if item != nil {
		t.Errorf("expected no item, got %+v", item)
	}

	// Counted the same way as a delete of an unknown item.
	expected := `
# HELP garderoba_persistence_failures_total Item mutations that could not be committed, by operation.
# TYPE garderoba_persistence_failures_total counter
garderoba_persistence_failures_total{op="updating item"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "garderoba_persistence_failures_total"); err != nil {
		t.Error(err)
	}
}

func TestMarkAllFinished(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	a, _ := s.CreateItem(ctx, "A", nil)
	b, _ := s.CreateItem(ctx, "B", nil)
	svc.ToggleItem(ctx, a.ID)
	svc.ToggleItem(ctx, b.ID)
	c, _ := s.CreateItem(ctx, "C", nil)

	items, _ := s.ListItems(ctx, store.NewestFirst)
	result, err := svc.MarkAllFinished(ctx, items)
	if err != nil {
		t.Fatalf("MarkAllFinished: %v", err)
	}
	if len(result.Finished) != 2 {
		t.Errorf("expected 2 finished, got %v", result.Finished)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != c.ID {
		t.Errorf("expected %s skipped, got %v", c.ID, result.Skipped)
	}

	stored, _ := s.ListItems(ctx, store.NewestFirst)
	for _, item := range stored {
		if item.IsInLaundry {
			t.Errorf("%s still in laundry", item.Label)
		}
	}
	got, _ := s.GetItem(ctx, a.ID)
	if got.TimesInLaundry != 1 {
		t.Errorf("counter changed by finish: %d", got.TimesInLaundry)
	}
	got, _ = s.GetItem(ctx, c.ID)
	if got.IsInLaundry {
		t.Error("finish must not toggle a clean item into the laundry")
	}
	for _, item := range items {
		if item.IsInLaundry {
			t.Errorf("in-memory %s still in laundry", item.Label)
		}
	}
}

func TestMarkAllFinishedStaleList(t *testing.T) {
	tests := []struct {
		name         string
		before       int // toggles before the list is loaded
		after        int // toggles after the list is loaded
		wantTimes    int
		wantFinished bool
	}{
		{"counter grew since load", 1, 2, 2, true},
		{"entered laundry since load", 0, 1, 1, true},
		{"left laundry since load", 1, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, s := newService(t)
			ctx := context.Background()
			item, _ := s.CreateItem(ctx, "Long Pants", nil)

			for i := 0; i < tt.before; i++ {
				svc.ToggleItem(ctx, item.ID)
			}
			snapshot, _ := s.ListItems(ctx, store.NewestFirst)
			for i := 0; i < tt.after; i++ {
				svc.ToggleItem(ctx, item.ID)
			}

			result, err := svc.MarkAllFinished(ctx, snapshot)
			if err != nil {
				t.Fatalf("MarkAllFinished: %v", err)
			}
			if finished := len(result.Finished) == 1; finished != tt.wantFinished {
				t.Errorf("finished = %v, want %v (result %+v)", finished, tt.wantFinished, result)
			}

			got, _ := s.GetItem(ctx, item.ID)
			if got.IsInLaundry {
				t.Error("item still in laundry after finish")
			}
			if got.TimesInLaundry != tt.wantTimes {
				t.Errorf("times = %d, want %d", got.TimesInLaundry, tt.wantTimes)
			}
		})
	}
}

func TestMarkAllFinishedDeletedItem(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	item, _ := s.CreateItem(ctx, "Hat", nil)
	svc.ToggleItem(ctx, item.ID)
	snapshot, _ := s.ListItems(ctx, store.NewestFirst)
	s.DeleteItem(ctx, item.ID)

	result, err := svc.MarkAllFinished(ctx, snapshot)
	if !errors.Is(err, store.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if result.Failed[item.ID] == nil {
		t.Errorf("expected failure recorded for %s, got %+v", item.ID, result)
	}
}

// failingStore fails finishing one item id.
type failingStore struct {
	*store.Store
	failID string
}

func (f *failingStore) FinishLaundry(ctx context.Context, id string) (bool, error) {
	if id == f.failID {
		return false, &store.PersistenceError{Op: "updating item", ID: id, Err: errors.New("disk full")}
	}
	return f.Store.FinishLaundry(ctx, id)
}

func TestMarkAllFinishedPartialFailure(t *testing.T) {
	s := store.New(db.NewTestDB(t))
	ctx := context.Background()

	var ids []string
	for _, label := range []string{"Shirt", "Hat", "Socks"} {
		item, _ := s.CreateItem(ctx, label, nil)
		s.ToggleLaundry(ctx, item.ID)
		ids = append(ids, item.ID)
	}

	svc := &Service{Store: &failingStore{Store: s, failID: ids[1]}}
	items, _ := s.ListItems(ctx, store.OldestFirst)

	result, err := svc.MarkAllFinished(ctx, items)
	if err == nil {
		t.Fatal("expected error for failed item")
	}
	var perr *store.PersistenceError
	if !errors.As(err, &perr) || perr.ID != ids[1] {
		t.Errorf("expected PersistenceError for %s, got %v", ids[1], err)
	}
	if len(result.Failed) != 1 || result.Failed[ids[1]] == nil {
		t.Errorf("expected one recorded failure, got %v", result.Failed)
	}
	if len(result.Finished) != 2 {
		t.Errorf("expected siblings to be finished, got %v", result.Finished)
	}

	// Sibling updates stay applied; the failed item keeps its stored state.
	for i, id := range ids {
		got, _ := s.GetItem(ctx, id)
		wantInLaundry := i == 1
		if got.IsInLaundry != wantInLaundry {
			t.Errorf("%s: in laundry = %v, want %v", got.Label, got.IsInLaundry, wantInLaundry)
		}
		if got.TimesInLaundry != 1 {
			t.Errorf("%s: times = %d, want 1", got.Label, got.TimesInLaundry)
		}
	}

	// The in-memory copy is not reverted.
	if items[1].IsInLaundry {
		t.Error("expected in-memory item to keep the attempted state")
	}
}
