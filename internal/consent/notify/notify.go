// Package notify delivers one-time codes to subjects.
package notify

import (
	"context"
	"errors"
	"strings"
)

// ErrDelivery marks any failure to hand a message to the channel.
var ErrDelivery = errors.New("notify: delivery failed")

// Sender delivers a single message. Any non-nil error is a failed delivery.
type Sender interface {
	Send(ctx context.Context, address, subject, body string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, address, subject, body string) error

func (f SenderFunc) Send(ctx context.Context, address, subject, body string) error {
	return f(ctx, address, subject, body)
}

// MaskEmail hides the local part except its first rune: "jane@example.com"
// becomes "j***@example.com". Anything without an @ is fully masked.
func MaskEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" || domain == "" {
		return "***"
	}
	first := []rune(local)[0]
	return string(first) + "***@" + domain
}
