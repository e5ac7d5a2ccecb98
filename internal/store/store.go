package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/garderoba/internal/events"
)

// ErrItemNotFound is returned when a mutation targets an item that does not exist.
var ErrItemNotFound = errors.New("item not found")

// PersistenceError reports a create, update or delete that could not be committed.
// The store does not revert any in-memory changes the caller made.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store owns the item records. Every committed mutation is published on the
// store's change bus before the mutating call returns.
type Store struct {
	db  *sql.DB
	bus *events.Bus
	now func() time.Time
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{
		db:  db,
		bus: events.NewBus(),
		now: time.Now,
	}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Subscribe registers fn for change notifications and returns the function
// that unregisters it.
func (s *Store) Subscribe(fn func(events.Change)) func() {
	return s.bus.Subscribe(fn)
}
