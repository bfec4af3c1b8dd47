// AngelaMos | 2026
// repository.go

package otp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/salexim/directory-backend/internal/core"
)

type Repository interface {
	Get(ctx context.Context, email string) (*Record, error)
	GetForUpdate(ctx context.Context, email string) (*Record, error)
	CreateIfAbsent(ctx context.Context, rec *Record) (bool, error)
	Replace(ctx context.Context, email, codeHash string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, email, codeHash string, now time.Time) error
	Delete(ctx context.Context, email string) error
}

type repository struct {
	db core.DBTX
}

// NewRepository accepts a *sqlx.DB or a *sqlx.Tx so the account
// transactions can consume the record atomically.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectColumns = `email, code_hash, expires_at, verified, created_at, updated_at`

func (r *repository) Get(ctx context.Context, email string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM email_otps WHERE email = $1`

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get otp: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}

	return &rec, nil
}

func (r *repository) GetForUpdate(
	ctx context.Context,
	email string,
) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM email_otps WHERE email = $1 FOR UPDATE`

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock otp: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock otp: %w", err)
	}

	return &rec, nil
}

// CreateIfAbsent inserts rec unless a record for the email already
// exists. It reports whether the row was written.
func (r *repository) CreateIfAbsent(
	ctx context.Context,
	rec *Record,
) (bool, error) {
	query := `
		INSERT INTO email_otps (email, code_hash, expires_at, verified)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (email) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, rec.Email, rec.CodeHash, rec.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("create otp: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create otp rows affected: %w", err)
	}

	return rows == 1, nil
}

func (r *repository) Replace(
	ctx context.Context,
	email, codeHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE email_otps
		SET code_hash = $2, expires_at = $3, verified = FALSE, updated_at = NOW()
		WHERE email = $1`

	result, err := r.db.ExecContext(ctx, query, email, codeHash, expiresAt)
	if err != nil {
		return fmt.Errorf("replace otp: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace otp rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("replace otp: %w", core.ErrNotFound)
	}

	return nil
}

// MarkVerified flips the record only while codeHash is still the
// current code and it has not expired, so a concurrent resend wins.
func (r *repository) MarkVerified(
	ctx context.Context,
	email, codeHash string,
	now time.Time,
) error {
	query := `
		UPDATE email_otps
		SET verified = TRUE, updated_at = NOW()
		WHERE email = $1 AND code_hash = $2 AND expires_at > $3`

	result, err := r.db.ExecContext(ctx, query, email, codeHash, now)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify otp rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("verify otp: %w", core.ErrInvalidOrExpired)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, email string) error {
	query := `DELETE FROM email_otps WHERE email = $1`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}

	return nil
}
