package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whoyou/whoyou/internal/api/validation"
)

func TestValidateEntityName_Valid(t *testing.T) {
	for _, name := range []string{"jdoe", "j.doe", "team-1", "under_score", "A1b2.c-d_e"} {
		assert.Empty(t, validation.ValidateEntityName("name", name), "name %q should be valid", name)
	}
}

func TestValidateEntityName_TooShort(t *testing.T) {
	errs := validation.ValidateEntityName("name", "abc")
	assert.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
	assert.Contains(t, errs[0].Message, "too short")
}

func TestValidateEntityName_DisallowedCharacters(t *testing.T) {
	for _, name := range []string{"j doe", "jo/hn", "name!", "tab\tname", "åccount"} {
		errs := validation.ValidateEntityName("name", name)
		assert.Len(t, errs, 1, "name %q should be rejected", name)
		assert.Contains(t, errs[0].Message, "disallowed")
	}
}

func TestValidateNewPassword_Valid(t *testing.T) {
	assert.Empty(t, validation.ValidateNewPassword("secret1", "secret1", 6))
}

func TestValidateNewPassword_TooShort(t *testing.T) {
	errs := validation.ValidateNewPassword("abc", "abc", 6)
	assert.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].Field)
}

func TestValidateNewPassword_ConfirmationMismatch(t *testing.T) {
	errs := validation.ValidateNewPassword("secret1", "secret2", 6)
	assert.Len(t, errs, 1)
	assert.Equal(t, "confirm_password", errs[0].Field)
}
