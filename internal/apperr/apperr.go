// Package apperr defines the error kinds surfaced to API callers. Handlers
// classify errors with errors.Is against the sentinels below; everything else
// is treated as an internal failure.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a missing user/item/booking/request, including the
	// ownership and participant checks that are reported as "not found".
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks a business-rule or data-shape violation.
	ErrInvalid = errors.New("invalid request")

	// ErrUnsupportedState marks an unrecognized listing filter. Kept apart
	// from ErrInvalid: callers using the documented enum should never hit it.
	ErrUnsupportedState = errors.New("Unknown state: UNSUPPORTED_STATUS")
)

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrNotFound, args)...)
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrInvalid, args)...)
}

func prepend(err error, args []any) []any {
	return append([]any{err}, args...)
}

// Message strips the sentinel prefix for user-facing output.
func Message(err error) string {
	for _, sentinel := range []error{ErrNotFound, ErrInvalid} {
		if msg, ok := strings.CutPrefix(err.Error(), sentinel.Error()+": "); ok {
			return msg
		}
	}
	return err.Error()
}
