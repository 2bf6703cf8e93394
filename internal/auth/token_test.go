package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(SessionClaims{
		Email:     "user@example.com",
		Tier:      "paid",
		Role:      "user",
		TokenType: TokenTypeExtension,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-123",
		},
	})
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "paid", claims.Tier)
	assert.Equal(t, TokenTypeExtension, claims.TokenType)
}

func TestVerifier_WrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a").Sign(SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	})
	require.NoError(t, err)

	_, err = NewVerifier("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestVerifier_Expired(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.Error(t, err)
}

func TestVerifier_Malformed(t *testing.T) {
	v := NewVerifier("test-secret")

	_, err := v.Verify("not-a-token")
	assert.Error(t, err)
}

func TestVerifier_RejectsNonHMAC(t *testing.T) {
	// A token claiming alg "none" must not verify.
	v := NewVerifier("test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.Error(t, err)
}
