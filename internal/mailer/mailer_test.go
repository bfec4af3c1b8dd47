// AngelaMos | 2026
// mailer_test.go

package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salexim/directory-backend/internal/config"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []Message
	err      error
	delay    time.Duration
}

func (r *recordingSender) Send(ctx context.Context, msg Message) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.err
}

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		Provider:     "log",
		From:         "support@example.com",
		FromName:     "Support",
		Timeout:      time.Second,
		OTPSubject:   "Email Verification",
		ResetSubject: "Reset Password",
	}
}

func TestSendOTP(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, testMailConfig())

	require.NoError(t, svc.SendOTP(context.Background(), " user@example.com ", "482913"))

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, "user@example.com", msg.To)
	assert.Equal(t, "Email Verification", msg.Subject)
	assert.Contains(t, msg.Text, "482913")
	assert.Contains(t, msg.HTML, "482913")
}

func TestSendResetPassword(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, testMailConfig())

	url := "https://example.com/resetPassword/abc"
	require.NoError(t, svc.SendResetPassword(context.Background(), "user@example.com", url))

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "Reset Password", sender.messages[0].Subject)
	assert.Contains(t, sender.messages[0].Text, url)
}

func TestSendWrapsTransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	svc := NewService(&recordingSender{err: transportErr}, testMailConfig())

	err := svc.SendOTP(context.Background(), "user@example.com", "111111")
	assert.ErrorIs(t, err, transportErr)
}

func TestSendRespectsTimeout(t *testing.T) {
	cfg := testMailConfig()
	cfg.Timeout = 20 * time.Millisecond
	svc := NewService(&recordingSender{delay: time.Second}, cfg)

	start := time.Now()
	err := svc.SendOTP(context.Background(), "user@example.com", "111111")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSendRejectsEmptyRecipient(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, testMailConfig())

	assert.Error(t, svc.SendOTP(context.Background(), "  ", "111111"))
	assert.Empty(t, sender.messages)
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := testMailConfig()

	svc, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, svc.sender)

	cfg.Provider = "smtp"
	cfg.SMTPHost = "smtp.example.com"
	svc, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, svc.sender)

	cfg.Provider = "mailersend"
	svc, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MailerSendSender{}, svc.sender)

	cfg.Provider = "carrier-pigeon"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestMailerSendWithoutKey(t *testing.T) {
	s := NewMailerSendSender(testMailConfig())
	err := s.Send(context.Background(), Message{To: "user@example.com"})
	assert.ErrorIs(t, err, ErrMailerSendDisabled)
}

func TestSMTPBuildMessage(t *testing.T) {
	cfg := testMailConfig()
	cfg.SMTPHost = "smtp.example.com"
	s := NewSMTPSender(cfg)

	raw := string(s.buildMessage(Message{
		To:      "user@example.com",
		Subject: "Reset Password",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	assert.Contains(t, raw, "From: Support <support@example.com>\r\n")
	assert.Contains(t, raw, "To: user@example.com\r\n")
	assert.Contains(t, raw, "Subject: Reset Password\r\n")
	assert.Contains(t, raw, "Date: Fri, 02 Jan 2026 03:04:05 +0000\r\n")
	assert.Contains(t, raw, "plain body")
	assert.Contains(t, raw, "<p>html body</p>")
	assert.True(t, strings.HasSuffix(raw, "--\r\n"))
}
