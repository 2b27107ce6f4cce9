package service

import (
	"errors"
	"fmt"
	"time"
)

// Every error returned by this package matches exactly one of these with
// errors.Is. Only ErrUnavailable is worth retrying.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyLinked     = errors.New("already linked")
	ErrNotLinkable       = errors.New("this record cannot be linked remotely")
	ErrRateLimited       = errors.New("too many codes requested")
	ErrInvalidCode       = errors.New("the code is invalid or has expired")
	ErrNoDeliveryChannel = errors.New("no address on file to send a code to")
	ErrUnavailable       = errors.New("temporarily unavailable")

	ErrInvalidRequest  = errors.New("invalid request")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// RateLimitError is returned when issuance is refused. RetryAfter is the
// time until the oldest challenge in the window ages out.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// unavailable wraps an infrastructure failure so callers can retry it.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
