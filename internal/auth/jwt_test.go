package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken("user-1", secret, time.Hour)
	require.NoError(t, err)

	id, err := GetUserIDFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestGetUserIDFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", secret, time.Hour)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, []byte("other"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	token, err := GenerateToken("user-1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetUserIDFromToken_Garbage(t *testing.T) {
	_, err := GetUserIDFromToken("not.a.token", secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
