package notify

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/carelink/pkg/slogx"
)

// LogSender writes messages to the log instead of delivering them. It is
// meant for local development only since the body contains the code.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, address, subject, body string) error {
	slogx.FromContext(ctx).Warn("notification not delivered (log driver)",
		slog.String("to", address),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
