// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/lib/pq"

	"github.com/salexim/directory-backend/internal/attachment"
)

type User struct {
	ID                     string         `db:"id"`
	Email                  string         `db:"email"`
	Name                   string         `db:"name"`
	PhoneNo                string         `db:"phone_no"`
	PasswordHash           string         `db:"password_hash"`
	UserType               string         `db:"user_type"`
	Package                int            `db:"package"`
	Type                   int            `db:"type"`
	GSTIN                  *string        `db:"gstin"`
	IsVerified             bool           `db:"is_verified"`
	CertificateData        []byte         `db:"certificate_data"`
	CertificateContentType *string        `db:"certificate_content_type"`
	CompanyID              *string        `db:"company_id"`
	AddedBy                *string        `db:"added_by"`
	AddedUsers             pq.StringArray `db:"added_users"`
	ResetPasswordTokenHash *string        `db:"reset_password_token_hash"`
	ResetPasswordExpires   *time.Time     `db:"reset_password_expires"`
	TokenVersion           int            `db:"token_version"`
	CreatedAt              time.Time      `db:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.UserType == TypeAdmin
}

func (u *User) IsAdded() bool {
	return u.UserType == TypeAdded && u.AddedBy != nil
}

func (u *User) Certificate() *attachment.Attachment {
	if u.CertificateData == nil {
		return nil
	}

	a := &attachment.Attachment{Data: u.CertificateData}
	if u.CertificateContentType != nil {
		a.ContentType = *u.CertificateContentType
	}
	return a
}

func (u *User) SetCertificate(a *attachment.Attachment) {
	if a == nil {
		u.CertificateData = nil
		u.CertificateContentType = nil
		return
	}

	ct := a.ContentType
	u.CertificateData = a.Data
	u.CertificateContentType = &ct
}

const (
	TypeUser  = "user"
	TypeAdmin = "admin"
	TypeAdded = "added"
)
