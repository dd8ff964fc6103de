package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueVerify(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := tm.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tm.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenManager_VerifyFailures(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := tm.Verify("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := tm.Verify("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager("other-secret", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue("user-123")
		require.NoError(t, err)

		_, err = tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		short, err := NewTokenManager("test-secret", time.Nanosecond)
		require.NoError(t, err)
		token, err := short.Issue("user-123")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = short.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "secret1"))
}
