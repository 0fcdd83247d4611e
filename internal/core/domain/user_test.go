package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ops@zmg.example", NormalizeEmail("  Ops@ZMG.example "))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ops@zmg.example"))
	assert.False(t, ValidEmail("ops"))
	assert.False(t, ValidEmail("Ops <ops@zmg.example>"))
	assert.False(t, ValidEmail(""))
}

func TestValidPassword(t *testing.T) {
	assert.True(t, ValidPassword("rollout2024"))
	assert.False(t, ValidPassword("short1"))
	assert.False(t, ValidPassword("lettersonly"))
	assert.False(t, ValidPassword("1234567890"))
}

func TestUser_HasPassword(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasPassword())
	u.PasswordHash = "$2a$10$abc"
	assert.True(t, u.HasPassword())
}
