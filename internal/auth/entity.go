// AngelaMos | 2026
// entity.go

package auth

import (
	"time"

	"github.com/salexim/directory-backend/internal/attachment"
)

// UserInfo is the account view the auth flows need. The user package
// owns the record and converts it.
type UserInfo struct {
	ID                   string
	Email                string
	Name                 string
	PhoneNo              string
	PasswordHash         string
	UserType             string
	Package              int
	Type                 int
	GSTIN                *string
	IsVerified           bool
	Certificate          *attachment.Attachment
	CompanyID            *string
	AddedBy              *string
	AddedUsers           []string
	ResetPasswordExpires *time.Time
	TokenVersion         int
	CreatedAt            time.Time
}

func (u *UserInfo) ResetTokenLive(now time.Time) bool {
	return u.ResetPasswordExpires != nil && now.Before(*u.ResetPasswordExpires)
}
