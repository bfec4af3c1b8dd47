// AngelaMos | 2026
// dto.go

package otp

type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}
