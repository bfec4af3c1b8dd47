// AngelaMos | 2026
// mailersend.go

package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mailersend/mailersend-go"

	"github.com/salexim/directory-backend/internal/config"
)

var ErrMailerSendDisabled = errors.New("mailersend not configured")

type MailerSendSender struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSendSender(cfg config.MailConfig) *MailerSendSender {
	m := &MailerSendSender{
		enabled: cfg.MailerSendAPIKey != "" && cfg.From != "",
		from: mailersend.From{
			Name:  cfg.FromName,
			Email: cfg.From,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(cfg.MailerSendAPIKey)
	}

	return m
}

func (m *MailerSendSender) Send(ctx context.Context, msg Message) error {
	if !m.enabled {
		return ErrMailerSendDisabled
	}

	message := m.client.Email.NewMessage()
	message.SetFrom(m.from)
	message.SetRecipients([]mailersend.Recipient{{Email: msg.To}})
	message.SetSubject(msg.Subject)

	if strings.TrimSpace(msg.Text) != "" {
		message.SetText(msg.Text)
	}
	if strings.TrimSpace(msg.HTML) != "" {
		message.SetHTML(msg.HTML)
	}

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	defer res.Body.Close() //nolint:errcheck // response body drain

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		//nolint:errcheck // body is only used in the error message
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf(
			"mailersend: status=%d body=%s",
			res.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}

	return nil
}
