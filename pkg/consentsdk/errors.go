package consentsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Error codes returned by the service.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeForbidden         = "forbidden"
	ErrorCodeNotFound          = "not_found"
	ErrorCodeAlreadyLinked     = "already_linked"
	ErrorCodeNotLinkable       = "not_linkable"
	ErrorCodeNoDeliveryChannel = "no_delivery_channel"
	ErrorCodeRateLimited       = "rate_limited"
	ErrorCodeInvalidCode       = "invalid_code"
	ErrorCodeUnavailable       = "unavailable"
	ErrorCodeServerError       = "server_error"
)

// Error is a non-2xx response from the service.
type Error struct {
	StatusCode  int
	Code        string
	Description string

	// RetryAfter is parsed from the Retry-After header on 429 responses.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// parseErrorResponse turns a non-2xx response into *Error. It returns nil for
// 2xx responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	e := &Error{StatusCode: resp.StatusCode}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		e.Code = errResp.Error
		e.Description = errResp.ErrorDescription
		return e
	}

	// Bearer failures come back with an empty body.
	if resp.StatusCode == http.StatusUnauthorized {
		e.Code = ErrorCodeInvalidToken
		e.Description = resp.Header.Get("WWW-Authenticate")
		return e
	}

	e.Code = ErrorCodeServerError
	e.Description = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	return e
}
