// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salexim/directory-backend/internal/core"
	"github.com/salexim/directory-backend/internal/otp"
)

type Repository interface {
	CreateVerified(ctx context.Context, user *User) error
	CreateAdded(ctx context.Context, child *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]User, error)
	ListByAddedBy(ctx context.Context, parentID string) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	ResetPassword(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) error
	DeleteAdded(ctx context.Context, childID, parentID string) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userColumns = `
		id, email, name, phone_no, password_hash, user_type, package, type,
		gstin, is_verified, certificate_data, certificate_content_type,
		company_id, added_by, added_users, reset_password_token_hash,
		reset_password_expires, token_version, created_at, updated_at`

// CreateVerified consumes the verified OTP record for user.Email and
// inserts the user in a single transaction.
func (r *repository) CreateVerified(ctx context.Context, user *User) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		otps := otp.NewRepository(tx)

		if err := requireVerifiedOTP(ctx, otps, user.Email); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		return otps.Delete(ctx, user.Email)
	})
}

// CreateAdded inserts child under its parent. The parent row is locked
// for the duration so its certificate, company and added_users list
// stay consistent with the new child.
func (r *repository) CreateAdded(ctx context.Context, child *User) error {
	if child.AddedBy == nil {
		return fmt.Errorf("create added user: missing parent: %w", core.ErrInvalidInput)
	}
	parentID := *child.AddedBy

	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		otps := otp.NewRepository(tx)

		if err := requireVerifiedOTP(ctx, otps, child.Email); err != nil {
			return fmt.Errorf("create added user: %w", err)
		}

		var parent User
		err := tx.GetContext(ctx, &parent, `
			SELECT id, user_type, certificate_data, certificate_content_type, company_id
			FROM users
			WHERE id = $1
			FOR UPDATE`, parentID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("create added user: parent: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("create added user: lock parent: %w", err)
		}

		if parent.UserType == TypeAdded {
			return fmt.Errorf("create added user: parent is itself an added user: %w", core.ErrForbidden)
		}

		child.CertificateData = parent.CertificateData
		child.CertificateContentType = parent.CertificateContentType
		child.CompanyID = parent.CompanyID

		if err := insertUser(ctx, tx, child); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET added_users = array_append(added_users, $1::text), updated_at = NOW()
			WHERE id = $2 AND NOT ($1::text = ANY(added_users))`,
			child.ID, parentID)
		if err != nil {
			return fmt.Errorf("create added user: link parent: %w", err)
		}

		return otps.Delete(ctx, child.Email)
	})
}

func requireVerifiedOTP(ctx context.Context, otps otp.Repository, email string) error {
	rec, err := otps.GetForUpdate(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrNotVerified
		}
		return err
	}

	if !rec.Verified {
		return core.ErrNotVerified
	}

	return nil
}

func insertUser(ctx context.Context, db core.DBTX, user *User) error {
	query := `
		INSERT INTO users (
			id, email, name, phone_no, password_hash, user_type, package, type,
			gstin, is_verified, certificate_data, certificate_content_type,
			company_id, added_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING added_users, token_version, created_at, updated_at`

	err := db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PhoneNo,
		user.PasswordHash,
		user.UserType,
		user.Package,
		user.Type,
		user.GSTIN,
		user.IsVerified,
		user.CertificateData,
		user.CertificateContentType,
		user.CompanyID,
		user.AddedBy,
	).Scan(&user.AddedUsers, &user.TokenVersion, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) || core.IsInvalidTextRepresentation(err) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByResetTokenHash(
	ctx context.Context,
	tokenHash string,
) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE reset_password_token_hash = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by reset token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by reset token: %w", err)
	}

	return &user, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		ORDER BY created_at`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *repository) ListByAddedBy(
	ctx context.Context,
	parentID string,
) ([]User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE added_by = $1
		ORDER BY created_at`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, parentID); err != nil {
		return nil, fmt.Errorf("list added users: %w", err)
	}

	return users, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET email = $2, name = $3, phone_no = $4, user_type = $5, package = $6,
		    type = $7, gstin = $8, is_verified = $9, certificate_data = $10,
		    certificate_content_type = $11, company_id = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Email,
		user.Name,
		user.PhoneNo,
		user.UserType,
		user.Package,
		user.Type,
		user.GSTIN,
		user.IsVerified,
		user.CertificateData,
		user.CertificateContentType,
		user.CompanyID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return expectOneRow(result, "update password")
}

func (r *repository) SetResetToken(
	ctx context.Context,
	id, tokenHash string,
	expires time.Time,
) error {
	query := `
		UPDATE users
		SET reset_password_token_hash = $2, reset_password_expires = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, tokenHash, expires)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	return expectOneRow(result, "set reset token")
}

// ResetPassword swaps the password only while tokenHash is still the
// live token, clears both token fields and bumps token_version so
// every session issued before the reset stops verifying.
func (r *repository) ResetPassword(
	ctx context.Context,
	id, tokenHash, passwordHash string,
	now time.Time,
) error {
	query := `
		UPDATE users
		SET password_hash = $3,
		    reset_password_token_hash = NULL,
		    reset_password_expires = NULL,
		    token_version = token_version + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND reset_password_token_hash = $2
		  AND reset_password_expires > $4`

	result, err := r.db.ExecContext(ctx, query, id, tokenHash, passwordHash, now)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset password rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("reset password: %w", core.ErrInvalidOrExpired)
	}

	return nil
}

func (r *repository) DeleteAdded(
	ctx context.Context,
	childID, parentID string,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM users WHERE id = $1 AND added_by = $2`,
			childID, parentID)
		if err != nil {
			return fmt.Errorf("delete added user: %w", err)
		}

		if err := expectOneRow(result, "delete added user"); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET added_users = array_remove(added_users, $1::text), updated_at = NOW()
			WHERE id = $2`,
			childID, parentID)
		if err != nil {
			return fmt.Errorf("delete added user: unlink parent: %w", err)
		}

		return nil
	})
}

// Delete removes the user and, when it was an added user, its entry in
// the parent's added_users. Its own children keep their added_by.
func (r *repository) Delete(ctx context.Context, id string) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var parentID sql.NullString
		err := tx.GetContext(ctx, &parentID,
			`DELETE FROM users WHERE id = $1 RETURNING added_by`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete user: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		if !parentID.Valid {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET added_users = array_remove(added_users, $1::text), updated_at = NOW()
			WHERE id = $2`,
			id, parentID.String)
		if err != nil {
			return fmt.Errorf("delete user: unlink parent: %w", err)
		}

		return nil
	})
}

func expectOneRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
