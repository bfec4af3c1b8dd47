// AngelaMos | 2026
// service.go

package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/salexim/directory-backend/internal/config"
	"github.com/salexim/directory-backend/internal/core"
	"github.com/salexim/directory-backend/internal/mailer"
)

// UserLookup answers whether an account already owns an email.
type UserLookup interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

type Service struct {
	repo     Repository
	users    UserLookup
	gateway  mailer.Gateway
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

func NewService(
	repo Repository,
	users UserLookup,
	gateway mailer.Gateway,
	cfg config.OTPConfig,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		gateway:  gateway,
		ttl:      cfg.TTL,
		now:      time.Now,
		generate: core.GenerateOTP,
	}
}

// RequestOTP starts verification for email. A second request while a
// record exists is answered with StatusInProgress and leaves the stored
// code untouched; ResendOTP is the way to get a fresh code.
func (s *Service) RequestOTP(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return "", fmt.Errorf("request otp: %w", core.ErrDuplicateKey)
	}

	if _, err := s.repo.Get(ctx, email); err == nil {
		return StatusInProgress, nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return "", err
	}

	code, err := s.generate()
	if err != nil {
		return "", err
	}

	created, err := s.repo.CreateIfAbsent(ctx, &Record{
		Email:     email,
		CodeHash:  core.HashToken(code),
		ExpiresAt: s.now().Add(s.ttl),
	})
	if err != nil {
		return "", err
	}
	if !created {
		return StatusInProgress, nil
	}

	return s.dispatch(ctx, email, code), nil
}

// VerifyOTP never writes on failure.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	rec, err := s.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("verify otp: %w", core.ErrInvalidOrExpired)
		}
		return err
	}

	now := s.now()
	if !rec.Matches(code) || rec.IsExpired(now) {
		return fmt.Errorf("verify otp: %w", core.ErrInvalidOrExpired)
	}

	return s.repo.MarkVerified(ctx, email, rec.CodeHash, now)
}

// ResendOTP replaces the code and expiry of an existing record and
// clears any earlier verification.
func (s *Service) ResendOTP(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	code, err := s.generate()
	if err != nil {
		return "", err
	}

	err = s.repo.Replace(ctx, email, core.HashToken(code), s.now().Add(s.ttl))
	if err != nil {
		return "", err
	}

	return s.dispatch(ctx, email, code), nil
}

func (s *Service) dispatch(ctx context.Context, email, code string) string {
	if err := s.gateway.SendOTP(ctx, email, code); err != nil {
		slog.WarnContext(ctx, "otp delivery failed",
			"email", email,
			"error", err,
		)
		core.AddSpanEvent(ctx, "otp.delivery_failed",
			attribute.String("email", email),
		)
		return StatusPending
	}

	core.AddSpanEvent(ctx, "otp.sent")
	return StatusSent
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
