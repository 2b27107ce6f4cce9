package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/notify"
	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	require.Equal(t, "j***@example.com", notify.MaskEmail("jane@example.com"))
	require.Equal(t, "é***@example.com", notify.MaskEmail("éloise@example.com"))
	require.Equal(t, "***", notify.MaskEmail("not-an-email"))
	require.Equal(t, "***", notify.MaskEmail("@example.com"))
}

func TestCodeMessageRender(t *testing.T) {
	subject, body, err := notify.CodeMessage{Code: "004217", TTL: 10 * time.Minute}.Render()
	require.NoError(t, err)
	require.Equal(t, "Your verification code", subject)
	require.Contains(t, body, "004217")
	require.Contains(t, body, "10 minutes")
	require.Contains(t, body, "A healthcare partner")
}

func TestHTTPMailer(t *testing.T) {
	t.Run("posts json with bearer key", func(t *testing.T) {
		var (
			got   map[string]any
			authz string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		m := notify.NewHTTPMailer(srv.URL, "key-1", "no-reply@carelink.test", time.Second)
		require.NoError(t, m.Send(context.Background(), "jane@example.com", "hi", "body"))
		require.Equal(t, "Bearer key-1", authz)
		require.Equal(t, "no-reply@carelink.test", got["from"])
		require.Equal(t, []any{"jane@example.com"}, got["to"])
		require.Equal(t, "body", got["text"])
	})

	t.Run("non-2xx is a delivery failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "mailbox unavailable", http.StatusBadGateway)
		}))
		defer srv.Close()

		err := notify.NewHTTPMailer(srv.URL, "", "x@y.z", time.Second).Send(context.Background(), "a@b.c", "s", "b")
		require.ErrorIs(t, err, notify.ErrDelivery)
		require.Contains(t, err.Error(), "502")
	})

	t.Run("timeout is a delivery failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		err := notify.NewHTTPMailer(srv.URL, "", "x@y.z", 50*time.Millisecond).Send(context.Background(), "a@b.c", "s", "b")
		require.ErrorIs(t, err, notify.ErrDelivery)
	})
}
