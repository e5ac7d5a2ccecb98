package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/garderoba/internal/events"
	"github.com/erazemk/garderoba/internal/imaging"
	"github.com/erazemk/garderoba/internal/model"
)

// Order selects the timestamp ordering of ListItems.
type Order int

// Orders.
const (
	NewestFirst Order = iota
	OldestFirst
)

const itemColumns = `id, label, image IS NOT NULL, is_in_laundry, times_in_laundry, timestamp`

// CreateItem stores a new item. img may be nil when no photo was captured.
func (s *Store) CreateItem(ctx context.Context, label string, img *imaging.Result) (*model.Item, error) {
	item := &model.Item{
		ID:        uuid.NewString(),
		Label:     strings.TrimSpace(label),
		Timestamp: s.now().UTC(),
	}

	var labelArg, imageArg, mimeArg any
	if item.Label != "" {
		labelArg = item.Label
	}
	if img != nil && len(img.Data) > 0 {
		imageArg = img.Data
		mimeArg = img.MIME
		item.HasImage = true
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, label, image, image_mime, is_in_laundry, times_in_laundry, timestamp)
		 VALUES (?, ?, ?, ?, 0, 0, ?)`,
		item.ID, labelArg, imageArg, mimeArg, item.Timestamp.UnixNano(),
	)
	if err != nil {
		return nil, &PersistenceError{Op: "creating item", Err: err}
	}

	s.bus.Publish(events.ItemCreated, item.ID)
	return item, nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns every item ordered by creation time. Items created in the
// same instant keep their insertion order.
func (s *Store) ListItems(ctx context.Context, order Order) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY timestamp DESC, rowid DESC`
	if order == OldestFirst {
		query = `SELECT ` + itemColumns + ` FROM items ORDER BY timestamp ASC, rowid ASC`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ToggleLaundry flips whether an item is in the laundry and returns the
// stored result. Entering the laundry increments the counter, leaving does
// not. The transition is a single statement evaluated against the stored
// row, so concurrent toggles never lose an increment.
func (s *Store) ToggleLaundry(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE items
		 SET times_in_laundry = times_in_laundry + (1 - is_in_laundry),
		     is_in_laundry = 1 - is_in_laundry
		 WHERE id = ?
		 RETURNING `+itemColumns,
		id,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &PersistenceError{Op: "updating item", ID: id, Err: ErrItemNotFound}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "updating item", ID: id, Err: err}
	}

	s.bus.Publish(events.ItemUpdated, id)
	return item, nil
}

// FinishLaundry takes an item out of the laundry and reports whether it was
// in. The counter is never written. An item already out of the laundry is
// left alone and no change is published.
func (s *Store) FinishLaundry(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET is_in_laundry = 0 WHERE id = ? AND is_in_laundry = 1`, id,
	)
	if err != nil {
		return false, &PersistenceError{Op: "updating item", ID: id, Err: err}
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, &PersistenceError{Op: "updating item", ID: id, Err: err}
	}

	if n == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM items WHERE id = ?)`, id,
		).Scan(&exists)
		if err != nil {
			return false, &PersistenceError{Op: "updating item", ID: id, Err: err}
		}
		if !exists {
			return false, &PersistenceError{Op: "updating item", ID: id, Err: ErrItemNotFound}
		}
		return false, nil
	}

	s.bus.Publish(events.ItemUpdated, id)
	return true, nil
}

// DeleteItem permanently removes an item. Deleting an unknown ID fails with
// ErrItemNotFound.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return &PersistenceError{Op: "deleting item", ID: id, Err: err}
	}
	if err := requireRow(result); err != nil {
		return &PersistenceError{Op: "deleting item", ID: id, Err: err}
	}

	s.bus.Publish(events.ItemDeleted, id)
	return nil
}

// GetItemImage returns an item's photo and MIME type. Data is nil when the
// item has no photo or does not exist.
func (s *Store) GetItemImage(ctx context.Context, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*model.Item, error) {
	var item model.Item
	var label sql.NullString
	var timestamp int64
	if err := sc.Scan(&item.ID, &label, &item.HasImage, &item.IsInLaundry, &item.TimesInLaundry, &timestamp); err != nil {
		return nil, err
	}
	item.Label = label.String
	item.Timestamp = time.Unix(0, timestamp).UTC()
	return &item, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
