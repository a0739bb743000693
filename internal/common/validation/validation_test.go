package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFullName(t *testing.T) {
	assert.NoError(t, ValidateFullName("Анна Иванова"))
	assert.Error(t, ValidateFullName("   "))
	assert.NoError(t, ValidateFullName(strings.Repeat("я", MaxFullNameLength)))
	assert.Error(t, ValidateFullName(strings.Repeat("я", MaxFullNameLength+1)))
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"ann@example.com", "a.b+news@mail.tver.ru", " ann@example.org "} {
		assert.NoError(t, ValidateEmail(ok), ok)
		assert.True(t, IsValidEmail(ok), ok)
	}
	for _, bad := range []string{"", "ann", "ann@", "@example.com", "ann@example", "ann @example.com"} {
		assert.Error(t, ValidateEmail(bad), bad)
	}
}

func TestValidateSupportMessage(t *testing.T) {
	assert.NoError(t, ValidateSupportMessage("Не открывается лента"))
	assert.Error(t, ValidateSupportMessage(" \n\t "))
	assert.Error(t, ValidateSupportMessage(strings.Repeat("x", MaxSupportMessageLength+1)))
}

func TestValidatePositiveInt(t *testing.T) {
	assert.NoError(t, ValidatePositiveInt(1, "tg_id"))
	assert.EqualError(t, ValidatePositiveInt(0, "tg_id"), "tg_id must be positive")
}
