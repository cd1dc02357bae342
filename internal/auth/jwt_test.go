package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("owner-1", secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	owner, err := OwnerFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)
}

func TestOwnerFromTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("owner-1", []byte("secret-a"), time.Hour)
	require.NoError(t, err)

	_, err = OwnerFromToken(token, []byte("secret-b"))
	assert.Error(t, err)
}

func TestOwnerFromTokenExpired(t *testing.T) {
	token, err := GenerateToken("owner-1", []byte("secret"), -time.Minute)
	require.NoError(t, err)

	_, err = OwnerFromToken(token, []byte("secret"))
	assert.Error(t, err)
}

func TestOwnerFromTokenGarbage(t *testing.T) {
	_, err := OwnerFromToken("not-a-token", []byte("secret"))
	assert.Error(t, err)
}
