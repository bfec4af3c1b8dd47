// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/salexim/directory-backend/internal/attachment"
)

type SignInRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type ForgetPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

type UserResponse struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	PhoneNo     string              `json:"phoneNo"`
	UserType    string              `json:"userType"`
	Package     int                 `json:"package"`
	Type        int                 `json:"type"`
	GSTIN       *string             `json:"gstin,omitempty"`
	IsVerified  bool                `json:"isVerified"`
	Certificate *attachment.Encoded `json:"certificate"`
	CompanyID   *string             `json:"companyId"`
	AddedBy     *string             `json:"addedBy"`
	AddedUsers  []string            `json:"addedUsers"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type SignInResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

func ToUserResponse(u *UserInfo) UserResponse {
	added := u.AddedUsers
	if added == nil {
		added = []string{}
	}

	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNo:     u.PhoneNo,
		UserType:    u.UserType,
		Package:     u.Package,
		Type:        u.Type,
		GSTIN:       u.GSTIN,
		IsVerified:  u.IsVerified,
		Certificate: attachment.Encode(u.Certificate),
		CompanyID:   u.CompanyID,
		AddedBy:     u.AddedBy,
		AddedUsers:  added,
		CreatedAt:   u.CreatedAt,
	}
}
