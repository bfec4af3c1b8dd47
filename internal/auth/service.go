// AngelaMos | 2026
// service.go

package auth

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
	"github.com/salexim/directory-backend/internal/middleware"
)

const (
	ResetSent    = "sent"
	ResetPending = "pending"
)

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetResetToken(
		ctx context.Context,
		userID, tokenHash string,
		expires time.Time,
	) error
	ResetPassword(
		ctx context.Context,
		userID, tokenHash, passwordHash string,
		now time.Time,
	) error
}

type Service struct {
	jwt          *JWTManager
	userProvider UserProvider
	blacklist    Blacklist
	gateway      mailer.Gateway
	resetURLBase string
	resetTTL     time.Duration
	now          func() time.Time
	newToken     func() (string, error)
}

func NewService(
	jwt *JWTManager,
	userProvider UserProvider,
	blacklist Blacklist,
	gateway mailer.Gateway,
	cfg config.AccountConfig,
) *Service {
	return &Service{
		jwt:          jwt,
		userProvider: userProvider,
		blacklist:    blacklist,
		gateway:      gateway,
		resetURLBase: cfg.ResetURLBase,
		resetTTL:     cfg.ResetTokenTTL,
		now:          time.Now,
		newToken:     core.GenerateResetToken,
	}
}

// SignIn answers an unknown email and a wrong password with the same
// error after the same amount of hashing work.
func (s *Service) SignIn(
	ctx context.Context,
	req SignInRequest,
) (*SignInResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, "")
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, core.ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	signed, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		UserType:     user.UserType,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &SignInResponse{
		Token:     signed.Token,
		TokenType: "Bearer",
		ExpiresAt: signed.ExpiresAt,
		User:      ToUserResponse(user),
	}, nil
}

func (s *Service) SignOut(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return core.ErrUnauthorized
	}

	return s.blacklist.Revoke(ctx, claims.JTI, claims.ExpiresAt)
}

// ForgetPassword stores the hash of a fresh reset token and mails the
// plain token inside the reset link.
func (s *Service) ForgetPassword(ctx context.Context, email string) (string, error) {
	user, err := s.userProvider.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}

	token, err := s.newToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	expires := s.now().Add(s.resetTTL)
	if err := s.userProvider.SetResetToken(ctx, user.ID, core.HashToken(token), expires); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	if err := s.gateway.SendResetPassword(ctx, user.Email, s.resetURLBase+token); err != nil {
		slog.WarnContext(ctx, "reset mail delivery failed",
			"user_id", user.ID,
			"error", err,
		)
		core.AddSpanEvent(ctx, "reset.delivery_failed",
			attribute.String("user_id", user.ID),
		)
		return ResetPending, nil
	}

	core.AddSpanEvent(ctx, "reset.sent")
	return ResetSent, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	tokenHash := core.HashToken(token)
	now := s.now()

	user, err := s.userProvider.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("reset password: %w", core.ErrInvalidOrExpired)
		}
		return err
	}

	if !user.ResetTokenLive(now) {
		return fmt.Errorf("reset password: %w", core.ErrInvalidOrExpired)
	}

	passwordHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.userProvider.ResetPassword(ctx, user.ID, tokenHash, passwordHash, now)
}

// VerifyAccessToken implements middleware.TokenVerifier. On top of the
// signature checks it rejects signed-out tokens and tokens issued
// before the last password reset. The user type is taken from the
// current record.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: unknown subject: %w", core.ErrTokenInvalid)
		}
		return nil, err
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: stale version: %w", core.ErrTokenRevoked)
	}

	claims.UserType = user.UserType
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ middleware.TokenVerifier = (*Service)(nil)
