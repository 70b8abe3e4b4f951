package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should vary")
}

func TestHashAndCompareCode(t *testing.T) {
	hash, err := HashCode("012345")
	require.NoError(t, err)
	assert.NotEqual(t, "012345", hash)

	assert.NoError(t, CompareCode(hash, "012345"))
	assert.ErrorIs(t, CompareCode(hash, "12345"), ErrCodeMismatch)
	assert.ErrorIs(t, CompareCode("", "012345"), ErrCodeMismatch)
}

func TestHashCode_Empty(t *testing.T) {
	_, err := HashCode("")
	assert.Error(t, err)
}
