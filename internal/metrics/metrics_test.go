package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/erazemk/garderoba/internal/events"
	"github.com/erazemk/garderoba/internal/store"
)

func TestObserveCountsByKind(t *testing.T) {
	m := New()
	m.Observe(events.Change{Kind: events.ItemCreated})
	m.Observe(events.Change{Kind: events.ItemCreated})
	m.Observe(events.Change{Kind: events.ItemDeleted})

	if got := testutil.ToFloat64(m.changes.WithLabelValues("item.created")); got != 2 {
		t.Errorf("expected 2 creates, got %v", got)
	}
	if got := testutil.ToFloat64(m.changes.WithLabelValues("item.deleted")); got != 1 {
		t.Errorf("expected 1 delete, got %v", got)
	}
}

func TestFailureCountsPersistenceErrors(t *testing.T) {
	m := New()

	m.Failure(&store.PersistenceError{Op: "deleting item", Err: store.ErrItemNotFound})
	m.Failure(fmt.Errorf("wrapped: %w", &store.PersistenceError{Op: "updating item", Err: io.EOF}))
	m.Failure(errors.Join(
		&store.PersistenceError{Op: "updating item", Err: io.EOF},
		&store.PersistenceError{Op: "updating item", Err: io.EOF},
	))
	m.Failure(errors.New("not a persistence error"))
	m.Failure(nil)

	if got := testutil.ToFloat64(m.failures.WithLabelValues("updating item")); got != 3 {
		t.Errorf("expected 3 update failures, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("deleting item")); got != 1 {
		t.Errorf("expected 1 delete failure, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Observe(events.Change{Kind: events.ItemCreated})
	m.LaundryEntered()
	m.Finished(3)
	m.Failure(errors.New("x"))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.LaundryEntered()
	m.Finished(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"garderoba_laundry_entries_total 1",
		"garderoba_laundry_finished_total 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}
