package service

import (
	"time"

	"renthub/internal/apperr"
	"renthub/internal/models"
)

// MatchesState reports whether a booking belongs under the given listing
// filter at the given instant. WAITING and REJECTED select by status;
// CURRENT, FUTURE and PAST select purely by the temporal window and
// deliberately ignore status, so a rejected booking still shows under PAST
// once its window closes.
func MatchesState(state models.BookingState, status string, start, end, now time.Time) bool {
	switch state {
	case models.StateAll:
		return true
	case models.StateWaiting:
		return status == models.StatusWaiting
	case models.StateRejected:
		return status == models.StatusRejected
	case models.StateCurrent:
		return !start.After(now) && !end.Before(now)
	case models.StateFuture:
		return start.After(now)
	case models.StatePast:
		return end.Before(now)
	default:
		return false
	}
}

// validatePage rejects negative offsets and non-positive page sizes. Nil
// values are fine, they mean the parameter was not supplied.
func validatePage(from, size *int64) error {
	if from != nil && *from < 0 {
		return apperr.Invalid("from must not be negative")
	}
	if size != nil && *size < 1 {
		return apperr.Invalid("size must be positive")
	}
	return nil
}

// paginate slices a page out of the already-ordered result. Nil from and size
// mean no pagination was requested and the whole set comes back. The offset
// is page-aligned: from is truncated down to the nearest multiple of size.
func paginate[T any](list []T, from, size *int64) []T {
	if from == nil || size == nil {
		return list
	}

	page := *from / *size
	offset := page * *size
	if offset >= int64(len(list)) {
		return nil
	}

	limit := offset + *size
	if limit > int64(len(list)) {
		limit = int64(len(list))
	}
	return list[offset:limit]
}
