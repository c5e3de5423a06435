package nekoai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessKey(t *testing.T) {
	key, err := accessKey("user@example.com", "hunter22")
	require.NoError(t, err)
	assert.Len(t, key, 64)

	// Deterministic for the same credentials.
	again, err := accessKey("user@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, key, again)

	// Any credential change produces a different key.
	other, err := accessKey("user@example.com", "hunter23")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	otherUser, err := accessKey("other@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, key, otherUser)
}

func TestAccessKey_ShortPassword(t *testing.T) {
	_, err := accessKey("user@example.com", "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}
