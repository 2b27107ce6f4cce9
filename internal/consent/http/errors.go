package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/carelink/internal/consent/service"
	"github.com/aussiebroadwan/carelink/pkg/httpx"
	"github.com/aussiebroadwan/carelink/pkg/slogx"
)

var (
	errNotFound = &httpx.APIError{
		StatusCode:  http.StatusNotFound,
		Code:        "not_found",
		Description: "no such subject, link or grant",
	}
	errAlreadyLinked = &httpx.APIError{
		StatusCode:  http.StatusConflict,
		Code:        "already_linked",
		Description: "the subject is already linked",
	}
	errNotLinkable = &httpx.APIError{
		StatusCode:  http.StatusUnprocessableEntity,
		Code:        "not_linkable",
		Description: "this record cannot be linked remotely",
	}
	errNoDeliveryChannel = &httpx.APIError{
		StatusCode:  http.StatusUnprocessableEntity,
		Code:        "no_delivery_channel",
		Description: "the subject has no address to send a code to",
	}
	errRateLimited = &httpx.APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        "rate_limited",
		Description: "too many codes requested for this subject, try again later",
	}
	// One description for wrong, expired and already used codes.
	errInvalidCode = &httpx.APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_code",
		Description: "the code is invalid or has expired",
	}
	errForbidden = &httpx.APIError{
		StatusCode:  http.StatusForbidden,
		Code:        "forbidden",
		Description: "not permitted",
	}
)

// writeServiceError maps the service error taxonomy onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var rl *service.RateLimitError
	switch {
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(httpx.RetryAfterSeconds(rl.RetryAfter)))
		errRateLimited.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		errNotFound.WriteError(w)
	case errors.Is(err, service.ErrAlreadyLinked):
		errAlreadyLinked.WriteError(w)
	case errors.Is(err, service.ErrNotLinkable):
		errNotLinkable.WriteError(w)
	case errors.Is(err, service.ErrNoDeliveryChannel):
		errNoDeliveryChannel.WriteError(w)
	case errors.Is(err, service.ErrInvalidCode):
		errInvalidCode.WriteError(w)
	case errors.Is(err, service.ErrInvalidRequest):
		httpx.ErrBadRequest.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		errForbidden.WriteError(w)
	case errors.Is(err, service.ErrUnavailable):
		log.Error("backing service unavailable", slog.Any("error", err))
		httpx.ErrServiceUnavailable.WriteError(w)
	default:
		log.Error("unhandled service error", slog.Any("error", err))
		httpx.ErrInternal.WriteError(w)
	}
}
