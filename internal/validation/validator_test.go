package validation_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/internal/validation"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email string `validate:"required,email"`
	Page  int    `validate:"min=1"`
	Role  string `validate:"omitempty,oneof=admin user"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validation.ValidateStruct(&sampleRequest{Email: "a@b.com", Page: 1}))
	})

	t.Run("collects every field", func(t *testing.T) {
		err := validation.ValidateStruct(&sampleRequest{Email: "nope", Page: 0, Role: "root"})
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrValidation)

		var ve *validation.RequestValidationError
		require.ErrorAs(t, err, &ve)
		require.Len(t, ve.Fields, 3)
		require.Contains(t, err.Error(), "Email must be a valid email address")
		require.Contains(t, err.Error(), "Page must be at least 1")
		require.Contains(t, err.Error(), "Role must be one of: admin user")
	})
}
