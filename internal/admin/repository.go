// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/salexim/directory-backend/internal/core"
)

// Counts is a snapshot of the directory's size.
type Counts struct {
	Users        int `json:"users"`
	Admins       int `json:"admins"`
	Added        int `json:"added"`
	Verified     int `json:"verified"`
	PendingOTPs  int `json:"pendingOtps"`
	ExpiredOTPs  int `json:"expiredOtps"`
	ActiveResets int `json:"activeResets"`
}

type Repository interface {
	Counts(ctx context.Context, now time.Time) (*Counts, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Counts(ctx context.Context, now time.Time) (*Counts, error) {
	var c Counts

	userQuery := `
		SELECT
			COUNT(*) FILTER (WHERE user_type = 'user') AS users,
			COUNT(*) FILTER (WHERE user_type = 'admin') AS admins,
			COUNT(*) FILTER (WHERE user_type = 'added') AS added,
			COUNT(*) FILTER (WHERE is_verified) AS verified,
			COUNT(*) FILTER (WHERE reset_password_expires > $1) AS active_resets
		FROM users`

	if err := r.db.QueryRowxContext(ctx, userQuery, now).Scan(
		&c.Users,
		&c.Admins,
		&c.Added,
		&c.Verified,
		&c.ActiveResets,
	); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	otpQuery := `
		SELECT
			COUNT(*) FILTER (WHERE NOT verified AND expires_at > $1) AS pending,
			COUNT(*) FILTER (WHERE NOT verified AND expires_at <= $1) AS expired
		FROM email_otps`

	if err := r.db.QueryRowxContext(ctx, otpQuery, now).Scan(
		&c.PendingOTPs,
		&c.ExpiredOTPs,
	); err != nil {
		return nil, fmt.Errorf("count otps: %w", err)
	}

	return &c, nil
}
