// AngelaMos | 2026
// mailer.go

package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/salexim/directory-backend/internal/config"
)

// Gateway delivers the account emails. Implementations must be safe
// for concurrent use.
type Gateway interface {
	SendOTP(ctx context.Context, email, code string) error
	SendResetPassword(ctx context.Context, email, resetURL string) error
}

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender is a mail transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Service struct {
	sender       Sender
	timeout      time.Duration
	otpSubject   string
	resetSubject string
}

func NewService(sender Sender, cfg config.MailConfig) *Service {
	return &Service{
		sender:       sender,
		timeout:      cfg.Timeout,
		otpSubject:   cfg.OTPSubject,
		resetSubject: cfg.ResetSubject,
	}
}

// New builds the Gateway for the configured provider.
func New(cfg config.MailConfig) (*Service, error) {
	var sender Sender

	switch strings.ToLower(cfg.Provider) {
	case "smtp":
		sender = NewSMTPSender(cfg)
	case "mailersend":
		sender = NewMailerSendSender(cfg)
	case "log", "":
		sender = NewLogSender()
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}

	return NewService(sender, cfg), nil
}

func (s *Service) SendOTP(ctx context.Context, email, code string) error {
	text := fmt.Sprintf(
		"Thank you for signing up. Please verify your email address using the OTP below:\n\n"+
			"%s\n\n"+
			"Enter this OTP in the verification form to complete your registration.\n"+
			"If you did not request this, please ignore this email.\n",
		code,
	)
	html := fmt.Sprintf(
		`<p>Thank you for signing up. Please verify your email address using the OTP below:</p>`+
			`<p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p>`+
			`<p>Enter this OTP in the verification form to complete your registration.</p>`+
			`<p>If you did not request this, please ignore this email.</p>`,
		code,
	)

	return s.send(ctx, Message{
		To:      email,
		Subject: s.otpSubject,
		Text:    text,
		HTML:    html,
	})
}

func (s *Service) SendResetPassword(ctx context.Context, email, resetURL string) error {
	text := fmt.Sprintf(
		"You are receiving this because you (or someone else) have requested the reset "+
			"of the password for your account.\n"+
			"Please click on the following link, or paste this into your browser to complete the process:\n\n"+
			"%s\n\n"+
			"If you did not request this, please ignore this email and your password will remain unchanged.\n",
		resetURL,
	)
	html := fmt.Sprintf(
		`<p>You are receiving this because you (or someone else) have requested the reset of the password for your account.</p>`+
			`<p><a href="%s">Reset your password</a></p>`+
			`<p>If you did not request this, please ignore this email and your password will remain unchanged.</p>`,
		resetURL,
	)

	return s.send(ctx, Message{
		To:      email,
		Subject: s.resetSubject,
		Text:    text,
		HTML:    html,
	})
}

func (s *Service) send(ctx context.Context, msg Message) error {
	msg.To = strings.TrimSpace(msg.To)
	if msg.To == "" {
		return fmt.Errorf("send mail: empty recipient")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	return nil
}
