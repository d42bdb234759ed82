// AngelaMos | 2026
// mail.go

package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/carterperez-dev/mystery-message/internal/config"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the mailer selected by mail.provider.
func New(cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	switch cfg.Provider {
	case config.MailProviderResend:
		return NewResendMailer(cfg.APIKey, cfg.From), nil
	case config.MailProviderLog, "":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Verification Code</title></head>
<body style="font-family: Roboto, Verdana, sans-serif;">
  <h2>Hello {{.Username}},</h2>
  <p>Thank you for registering. Please use the following verification code to complete your registration:</p>
  <p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
  <p>If you did not request this code, please ignore this email.</p>
</body>
</html>`))

// VerificationEmail renders the sign-up code email for a new account.
func VerificationEmail(to, username, code string) (Message, error) {
	var buf bytes.Buffer
	err := verificationTemplate.Execute(&buf, struct {
		Username string
		Code     string
	}{Username: username, Code: code})
	if err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}

	return Message{
		To:      to,
		Subject: "Mystery Message | Verification Code",
		HTML:    buf.String(),
	}, nil
}
