package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is the JSON error body every endpoint returns.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a no-store JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// WithDescription copies e with a different description.
func (e *APIError) WithDescription(desc string) *APIError {
	cp := *e
	cp.Description = desc
	return &cp
}

var (
	ErrBadRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_request",
		Description: "the request is malformed or missing required parameters",
	}
	ErrServiceUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        "unavailable",
		Description: "a backing service is unavailable, try again shortly",
	}
	ErrInternal = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        "server_error",
		Description: "an unexpected error occurred",
	}
)

// ErrTooManyRequests is written by the rate limit middleware.
var ErrTooManyRequests = &APIError{
	StatusCode:  http.StatusTooManyRequests,
	Code:        "rate_limited",
	Description: "too many requests, try again later",
}
