package validation_test

import (
	"errors"
	"testing"

	"github.com/jrsteele09/social-connect/internal/validation"
	"github.com/stretchr/testify/require"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3"`
}

func TestValidateStruct(t *testing.T) {
	v := validation.Get()
	require.Same(t, v, validation.Get())

	require.NoError(t, v.ValidateStruct(registerRequest{Email: "a@b.co", Password: "secret"}))

	err := v.ValidateStruct(registerRequest{Email: "nope", Password: "123", Username: "ab"})
	require.Error(t, err)
	require.Equal(t, map[string]string{
		"email":    "Invalid email format",
		"password": "Must be at least 6 characters",
		"username": "Must be at least 3 characters",
	}, validation.FieldErrors(err))
	require.Equal(t, "Must be at least 6 characters", validation.FirstMessage(err, "password", "email"))

	err = v.ValidateStruct(registerRequest{Password: "secret"})
	require.Equal(t, map[string]string{"email": "This field is required"}, validation.FieldErrors(err))
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	require.Nil(t, validation.FieldErrors(nil))
	require.Equal(t, map[string]string{"error": "Invalid request format"}, validation.FieldErrors(errors.New("eof")))
	require.Equal(t, "Invalid request format", validation.FirstMessage(errors.New("eof")))
}
