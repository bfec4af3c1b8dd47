// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/salexim/directory-backend/internal/attachment"
)

type SignUpRequest struct {
	Name     string  `json:"name"     validate:"required,min=1,max=100"`
	Email    string  `json:"email"    validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	PhoneNo  string  `json:"phoneNo"  validate:"required,phone"`
	UserType string  `json:"userType" validate:"required,oneof=user"`
	Package  int     `json:"package"  validate:"gte=0"`
	Type     int     `json:"type"     validate:"gte=0"`
	GSTIN    *string `json:"gstin"    validate:"omitempty,max=15"`
}

type AddUserRequest struct {
	Name     string  `json:"name"     validate:"required,min=1,max=100"`
	Email    string  `json:"email"    validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	PhoneNo  string  `json:"phoneNo"  validate:"required,phone"`
	Package  *int    `json:"package"  validate:"omitempty,gte=0"`
	Type     int     `json:"type"     validate:"gte=0"`
	GSTIN    *string `json:"gstin"    validate:"omitempty,max=15"`
	AddedBy  string  `json:"addedBy"  validate:"required,uuid"`
}

// UpdateAddedUserRequest fields left nil or empty keep their value.
type UpdateAddedUserRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=1,max=100"`
	PhoneNo *string `json:"phoneNo" validate:"omitempty,phone"`
	Email   *string `json:"email"   validate:"omitempty,email,max=255"`
}

func (r *UpdateAddedUserRequest) normalize() {
	r.Name = nonEmpty(r.Name)
	r.PhoneNo = nonEmpty(r.PhoneNo)
	r.Email = nonEmpty(r.Email)
}

type UpdateUserRequest struct {
	Name       *string `json:"name"       validate:"omitempty,min=1,max=100"`
	Email      *string `json:"email"      validate:"omitempty,email,max=255"`
	PhoneNo    *string `json:"phoneNo"    validate:"omitempty,phone"`
	UserType   *string `json:"userType"   validate:"omitempty,oneof=user admin"`
	Package    *int    `json:"package"    validate:"omitempty,gte=0"`
	GSTIN      *string `json:"gstin"      validate:"omitempty,max=15"`
	IsVerified *bool   `json:"isVerified"`
	CompanyID  *string `json:"companyId"  validate:"omitempty,max=64"`
}

func (r *UpdateUserRequest) normalize() {
	r.Name = nonEmpty(r.Name)
	r.Email = nonEmpty(r.Email)
	r.PhoneNo = nonEmpty(r.PhoneNo)
	r.UserType = nonEmpty(r.UserType)
	r.GSTIN = nonEmpty(r.GSTIN)
	r.CompanyID = nonEmpty(r.CompanyID)
}

type DeleteAddedUserRequest struct {
	UserID string `json:"userId" validate:"omitempty,uuid"`
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
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func ToUserResponse(u *User) UserResponse {
	added := []string(u.AddedUsers)
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
		Certificate: attachment.Encode(u.Certificate()),
		CompanyID:   u.CompanyID,
		AddedBy:     u.AddedBy,
		AddedUsers:  added,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
