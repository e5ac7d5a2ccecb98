package view

import (
	"errors"

	"github.com/erazemk/garderoba/internal/store"
)

// ErrorMessage turns an error from an item operation into text for the user.
func ErrorMessage(err error) string {
	var perr *store.PersistenceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, store.ErrItemNotFound):
		return "This item no longer exists."
	case errors.As(err, &perr):
		return "Could not save your changes (" + perr.Op + " failed). Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
