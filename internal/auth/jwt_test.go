package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "k9Xm2pQ7vR4nW8jL3tY6bF1cH5dG0sZa"

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	token, err := svc.Generate("hub-access-token")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "hub-access-token", claims.HubToken)
}

func TestJWTService_VerifyRejectsExpired(t *testing.T) {
	svc := NewJWTService(testSecret, -time.Minute)

	token, err := svc.Generate("hub-access-token")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestJWTService_VerifyRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)
	other := NewJWTService("aB3dE6gH9jK2mN5pQ8sT1vW4yZ7cF0rX", time.Hour)

	token, err := other.Generate("hub-access-token")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestJWTService_VerifyRejectsUnsignedToken(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{HubToken: "hub-access-token"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestJWTService_VerifyRejectsGarbage(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)

	_, err := svc.Verify("not-a-token")
	assert.Error(t, err)
}
