package model

import "time"

// DefaultLabel is shown for items saved without a label.
const DefaultLabel = "No Label"

// Item represents a single tracked piece of clothing (or any other household item).
type Item struct {
	ID             string    `json:"id"`
	Label          string    `json:"label,omitempty"`
	HasImage       bool      `json:"has_image"`
	IsInLaundry    bool      `json:"is_in_laundry"`
	TimesInLaundry int       `json:"times_in_laundry"`
	Timestamp      time.Time `json:"timestamp"`
}

// DisplayLabel returns the label, or DefaultLabel when none was given.
func (i *Item) DisplayLabel() string {
	if i.Label == "" {
		return DefaultLabel
	}
	return i.Label
}
