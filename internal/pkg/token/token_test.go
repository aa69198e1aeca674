package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GenerateAndVerify(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	tokenString, err := manager.Generate("taro@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	subject, err := manager.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "taro@example.com", subject)
}

func TestManager_Verify_WrongSecret(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)

	tokenString, err := manager.Generate("taro@example.com")
	require.NoError(t, err)

	_, err = other.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Verify_Expired(t *testing.T) {
	// 有効期限を過去にして発行
	manager := NewManager("test-secret", -time.Minute)

	tokenString, err := manager.Generate("taro@example.com")
	require.NoError(t, err)

	_, err = manager.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestManager_Verify_Malformed(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	_, err := manager.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
