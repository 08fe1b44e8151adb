package models

import "strings"

// BookingState is the listing filter. ALL, WAITING and REJECTED select by
// stored status; CURRENT, FUTURE and PAST select by the booking window
// relative to query time, regardless of status.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
	StateCurrent  BookingState = "CURRENT"
	StateFuture   BookingState = "FUTURE"
	StatePast     BookingState = "PAST"
)

// ParseBookingState resolves a raw filter value case-insensitively.
// An empty value means ALL.
func ParseBookingState(raw string) (BookingState, bool) {
	switch BookingState(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", StateAll:
		return StateAll, true
	case StateWaiting:
		return StateWaiting, true
	case StateRejected:
		return StateRejected, true
	case StateCurrent:
		return StateCurrent, true
	case StateFuture:
		return StateFuture, true
	case StatePast:
		return StatePast, true
	default:
		return "", false
	}
}
