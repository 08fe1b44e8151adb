package models

import "time"

const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type Booking struct {
	ID       int64     `json:"id"`
	ItemID   int64     `json:"item_id"`
	BookerID int64     `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Status   string    `json:"status"` // WAITING, APPROVED, REJECTED
	Created  time.Time `json:"created_at"`
	Updated  time.Time `json:"updated_at"`
}

// LastNextBooking is the projection shown to an item's owner: the nearest
// past/future approved booking reduced to its id and booker.
type LastNextBooking struct {
	ID       int64 `json:"id"`
	BookerID int64 `json:"bookerId"`
}
