// AngelaMos | 2026
// entity.go

package otp

import (
	"time"

	"github.com/salexim/directory-backend/internal/core"
)

// Record is the pending verification for one email address. The code
// itself is never stored, only its SHA-256 hash.
type Record struct {
	Email     string    `db:"email"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	Verified  bool      `db:"verified"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *Record) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *Record) Matches(code string) bool {
	return core.CompareTokenHash(code, r.CodeHash)
}

// Delivery outcomes reported back to the client.
const (
	StatusSent       = "sent"
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
)
