// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
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

var (
	otpColumns      = []string{"email", "code_hash", "expires_at", "verified", "created_at", "updated_at"}
	insertedColumns = []string{"added_users", "token_version", "created_at", "updated_at"}
)

func q(s string) string {
	return regexp.QuoteMeta(s)
}

func newUser(email string) *User {
	ct := "application/pdf"
	return &User{
		ID:                     "11111111-1111-4111-8111-111111111111",
		Email:                  email,
		Name:                   "Acme",
		PhoneNo:                "9876543210",
		PasswordHash:           "$argon2id$...",
		UserType:               TypeUser,
		CertificateData:        []byte("pdf"),
		CertificateContentType: &ct,
	}
}

func expectOTP(mock sqlmock.Sqlmock, email string, verified bool) {
	now := time.Now()
	mock.ExpectQuery(q("FROM email_otps WHERE email = $1 FOR UPDATE")).
		WithArgs(email).
		WillReturnRows(sqlmock.NewRows(otpColumns).
			AddRow(email, "hash", now.Add(time.Minute), verified, now, now))
}

func TestCreateVerified(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := newUser("a@acme.test")
	now := time.Now()

	mock.ExpectBegin()
	expectOTP(mock, "a@acme.test", true)
	mock.ExpectQuery(q("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows(insertedColumns).AddRow("{}", 0, now, now))
	mock.ExpectExec(q("DELETE FROM email_otps WHERE email = $1")).
		WithArgs("a@acme.test").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateVerified(context.Background(), user))
	assert.Equal(t, now, user.CreatedAt)
	assert.Empty(t, user.AddedUsers)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVerifiedRequiresVerifiedOTP(t *testing.T) {
	t.Run("unverified record", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		expectOTP(mock, "a@acme.test", false)
		mock.ExpectRollback()

		err := repo.CreateVerified(context.Background(), newUser("a@acme.test"))
		assert.ErrorIs(t, err, core.ErrNotVerified)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no record", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("FROM email_otps WHERE email = $1 FOR UPDATE")).
			WillReturnRows(sqlmock.NewRows(otpColumns))
		mock.ExpectRollback()

		err := repo.CreateVerified(context.Background(), newUser("a@acme.test"))
		assert.ErrorIs(t, err, core.ErrNotVerified)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateVerifiedDuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	expectOTP(mock, "a@acme.test", true)
	mock.ExpectQuery(q("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateVerified(context.Background(), newUser("a@acme.test"))
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdded(t *testing.T) {
	repo, mock := newMockRepo(t)
	parentID := "22222222-2222-4222-8222-222222222222"
	child := newUser("staff@acme.test")
	child.UserType = TypeAdded
	child.CertificateData = nil
	child.CertificateContentType = nil
	child.AddedBy = &parentID
	now := time.Now()

	mock.ExpectBegin()
	expectOTP(mock, "staff@acme.test", true)
	mock.ExpectQuery(q("FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(parentID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_type", "certificate_data", "certificate_content_type", "company_id",
		}).AddRow(parentID, TypeUser, []byte("cert"), "image/png", "company-9"))
	mock.ExpectQuery(q("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows(insertedColumns).AddRow("{}", 0, now, now))
	mock.ExpectExec(q("SET added_users = array_append(added_users, $1::text)")).
		WithArgs(child.ID, parentID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM email_otps WHERE email = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateAdded(context.Background(), child))
	assert.Equal(t, []byte("cert"), child.CertificateData)
	require.NotNil(t, child.CompanyID)
	assert.Equal(t, "company-9", *child.CompanyID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAddedUnknownParent(t *testing.T) {
	repo, mock := newMockRepo(t)
	parentID := "22222222-2222-4222-8222-222222222222"
	child := newUser("staff@acme.test")
	child.AddedBy = &parentID

	mock.ExpectBegin()
	expectOTP(mock, "staff@acme.test", true)
	mock.ExpectQuery(q("FROM users WHERE id = $1 FOR UPDATE")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.CreateAdded(context.Background(), child)
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAdded(t *testing.T) {
	t.Run("unlinks parent in the same transaction", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(q("DELETE FROM users WHERE id = $1 AND added_by = $2")).
			WithArgs("child", "parent").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("SET added_users = array_remove(added_users, $1::text)")).
			WithArgs("child", "parent").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.DeleteAdded(context.Background(), "child", "parent"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing child rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(q("DELETE FROM users WHERE id = $1 AND added_by = $2")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.DeleteAdded(context.Background(), "child", "parent")
		assert.ErrorIs(t, err, core.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDelete(t *testing.T) {
	t.Run("primary account", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("DELETE FROM users WHERE id = $1 RETURNING added_by")).
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows([]string{"added_by"}).AddRow(nil))
		mock.ExpectCommit()

		require.NoError(t, repo.Delete(context.Background(), "u-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("added account is pulled from its parent", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("DELETE FROM users WHERE id = $1 RETURNING added_by")).
			WillReturnRows(sqlmock.NewRows([]string{"added_by"}).AddRow("parent"))
		mock.ExpectExec(q("array_remove(added_users, $1::text)")).
			WithArgs("u-2", "parent").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Delete(context.Background(), "u-2"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("DELETE FROM users WHERE id = $1 RETURNING added_by")).
			WillReturnRows(sqlmock.NewRows([]string{"added_by"}))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), "ghost")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestResetPasswordExpiredToken(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec(q("AND reset_password_expires > $4")).
		WithArgs("u-1", "token-hash", "new-hash", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ResetPassword(context.Background(), "u-1", "token-hash", "new-hash", now)
	assert.ErrorIs(t, err, core.ErrInvalidOrExpired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(q("UPDATE users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Update(context.Background(), newUser("taken@acme.test"))
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(q("FROM users WHERE id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetByIDMalformedID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(q("FROM users WHERE id = $1")).
		WithArgs("abc").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	_, err := repo.GetByID(context.Background(), "abc")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExistsByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(q("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)")).
		WithArgs("a@acme.test").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "a@acme.test")
	require.NoError(t, err)
	assert.True(t, exists)
}
