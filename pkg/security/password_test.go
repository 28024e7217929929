package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, ComparePassword(hash, "secret123"))
}

func TestComparePasswordMismatch(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.False(t, ComparePassword(hash, "secret124"))
	assert.False(t, ComparePassword(hash, ""))
}

func TestComparePasswordCorruptHash(t *testing.T) {
	assert.False(t, ComparePassword("", "secret123"))
	assert.False(t, ComparePassword("not-a-bcrypt-hash", "secret123"))
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("secret123")
	require.NoError(t, err)
	second, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
