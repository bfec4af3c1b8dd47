// AngelaMos | 2026
// log.go

package mailer

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the structured log instead of delivering
// them. Development only.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{logger: slog.Default().With("component", "mailer")}
}

func (l *LogSender) Send(ctx context.Context, msg Message) error {
	l.logger.InfoContext(ctx, "mail not delivered (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
