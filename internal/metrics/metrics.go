// Package metrics exposes Prometheus counters for item and laundry activity.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/garderoba/internal/events"
	"github.com/erazemk/garderoba/internal/store"
)

const namespace = "garderoba"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	changes        *prometheus.CounterVec
	laundryEntries prometheus.Counter
	finished       prometheus.Counter
	failures       *prometheus.CounterVec
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_changes_total",
			Help:      "Committed item mutations by kind.",
		}, []string{"kind"}),
		laundryEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "laundry_entries_total",
			Help:      "Times an item was put into the laundry.",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "laundry_finished_total",
			Help:      "Items taken out of the laundry by mark finished.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Item mutations that could not be committed, by operation.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		m.changes,
		m.laundryEntries,
		m.finished,
		m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe counts a committed change. It is meant to be subscribed to the item store.
func (m *Metrics) Observe(c events.Change) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(string(c.Kind)).Inc()
}

// LaundryEntered counts one item entering the laundry.
func (m *Metrics) LaundryEntered() {
	if m == nil {
		return
	}
	m.laundryEntries.Inc()
}

// Finished counts n items taken out of the laundry in one batch.
func (m *Metrics) Finished(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.finished.Add(float64(n))
}

// Failure counts err if it is (or wraps) a *store.PersistenceError.
// errors.Join results are walked so batch failures count once per item.
func (m *Metrics) Failure(err error) {
	if m == nil || err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			m.Failure(e)
		}
		return
	}
	var perr *store.PersistenceError
	if errors.As(err, &perr) {
		m.failures.WithLabelValues(perr.Op).Inc()
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
