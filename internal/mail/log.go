// AngelaMos | 2026
// log.go

package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes outgoing mail to the log instead of delivering it.
// Used in development so sign-up codes can be read from the console.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "mail not delivered (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
		"html", msg.HTML,
	)
	return nil
}
