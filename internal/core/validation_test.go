// AngelaMos | 2026
// validation_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phoneForm struct {
	Email   string  `json:"email"   validate:"required,email"`
	PhoneNo string  `json:"phoneNo" validate:"required,phone"`
	Name    *string `json:"name"    validate:"omitempty,min=1"`
}

func TestPhoneValidation(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(phoneForm{Email: "a@b.co", PhoneNo: "9876543210"}))

	for _, bad := range []string{"12345", "98765432101", "98765-4321", "abcdefghij"} {
		err := v.Struct(phoneForm{Email: "a@b.co", PhoneNo: bad})
		require.Error(t, err, bad)
		assert.Contains(t, FormatValidationError(err), "phoneNo must be a 10-digit phone number")
	}
}

func TestFormatValidationErrorUsesJSONNames(t *testing.T) {
	err := NewValidator().Struct(phoneForm{})
	require.Error(t, err)

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "email is required")
	assert.Contains(t, msg, "phoneNo is required")
}
