// AngelaMos | 2026
// repository_test.go

package otp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salexim/directory-backend/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var otpColumns = []string{"email", "code_hash", "expires_at", "verified", "created_at", "updated_at"}

func TestRepositoryGet(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM email_otps WHERE email = $1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(otpColumns).
			AddRow("a@example.com", "hash", now, true, now, now))

	rec, err := repo.Get(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", rec.CodeHash)
	assert.True(t, rec.Verified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM email_otps WHERE email = $1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(otpColumns))

	_, err := repo.Get(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryGetForUpdateLocks(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1 FOR UPDATE")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(otpColumns))

	_, err := repo.GetForUpdate(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateIfAbsent(t *testing.T) {
	repo, mock := newMockRepo(t)
	exp := time.Now().Add(10 * time.Minute)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (email) DO NOTHING")).
		WithArgs("a@example.com", "hash", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (email) DO NOTHING")).
		WithArgs("a@example.com", "hash", exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := &Record{Email: "a@example.com", CodeHash: "hash", ExpiresAt: exp}

	created, err := repo.CreateIfAbsent(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRepositoryReplace(t *testing.T) {
	repo, mock := newMockRepo(t)
	exp := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("SET code_hash = $2, expires_at = $3, verified = FALSE")).
		WithArgs("a@example.com", "new", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET code_hash = $2, expires_at = $3, verified = FALSE")).
		WithArgs("ghost@example.com", "new", exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Replace(context.Background(), "a@example.com", "new", exp))
	assert.ErrorIs(t, repo.Replace(context.Background(), "ghost@example.com", "new", exp), core.ErrNotFound)
}

func TestRepositoryMarkVerifiedGuardsCode(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("WHERE email = $1 AND code_hash = $2 AND expires_at > $3")).
		WithArgs("a@example.com", "stale", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkVerified(context.Background(), "a@example.com", "stale", now)
	assert.ErrorIs(t, err, core.ErrInvalidOrExpired)
}
