package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/service"
	"github.com/aussiebroadwan/carelink/pkg/consentsdk"
	"github.com/stretchr/testify/require"
)

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	const invalidCode = "the code is invalid or has expired"

	// desc is only checked when set.
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		desc   string
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound, "not_found", ""},
		{"already linked", service.ErrAlreadyLinked, http.StatusConflict, "already_linked", ""},
		{"not linkable", service.ErrNotLinkable, http.StatusUnprocessableEntity, "not_linkable", "this record cannot be linked remotely"},
		{"no delivery channel", service.ErrNoDeliveryChannel, http.StatusUnprocessableEntity, "no_delivery_channel", ""},
		{"invalid code", service.ErrInvalidCode, http.StatusBadRequest, "invalid_code", invalidCode},
		{"expired code", fmt.Errorf("%w: challenge expired", service.ErrInvalidCode), http.StatusBadRequest, "invalid_code", invalidCode},
		{"used code", fmt.Errorf("%w: already verified", service.ErrInvalidCode), http.StatusBadRequest, "invalid_code", invalidCode},
		{"invalid request", service.ErrInvalidRequest, http.StatusBadRequest, "invalid_request", ""},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "forbidden", ""},
		{"unavailable", fmt.Errorf("%w: deliver code: boom", service.ErrUnavailable), http.StatusServiceUnavailable, "unavailable", ""},
		{"rate limited", &service.RateLimitError{RetryAfter: 1500 * time.Millisecond}, http.StatusTooManyRequests, "rate_limited", ""},
		{"unexpected", fmt.Errorf("something else"), http.StatusInternalServerError, "server_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			require.Equal(t, tt.status, rec.Code)

			var body consentsdk.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.code, body.Error)
			require.NotEmpty(t, body.ErrorDescription)
			if tt.desc != "" {
				require.Equal(t, tt.desc, body.ErrorDescription)
			}
			require.NotContains(t, body.ErrorDescription, "boom")
		})
	}

	t.Run("retry after rounds up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), &service.RateLimitError{RetryAfter: 1500 * time.Millisecond})
		require.Equal(t, "2", rec.Header().Get("Retry-After"))
	})
}
