package models

import "time"

// ItemRequest is a wish for an item that does not exist yet. Owners fulfill
// a request by creating an item that references it.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequestorID int64     `json:"requestor_id"`
	Created     time.Time `json:"created"`
}

// ItemRequestDetails carries the items created in response to a request.
type ItemRequestDetails struct {
	ItemRequest
	Items []*Item `json:"items"`
}
