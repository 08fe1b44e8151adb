package models

import "time"

type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	OwnerID     int64     `json:"owner_id"`
	RequestID   int64     `json:"request_id,omitempty"` // 0 when not created for a request
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemPatch carries the fields an owner may change. Nil means "leave as is".
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// ItemDetails is an item enriched for its owner with the last/next approved
// booking and for everyone with the item's comments.
type ItemDetails struct {
	Item
	LastBooking *LastNextBooking `json:"lastBooking"`
	NextBooking *LastNextBooking `json:"nextBooking"`
	Comments    []*Comment       `json:"comments"`
}
