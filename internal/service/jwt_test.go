package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	InitJWT("test-secret-123")

	token, err := GenerateJWT(42, "ada", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.Empty(t, claims.Role)

	token, err = GenerateJWTWithRole(7, "ops", RoleAdmin, time.Hour)
	require.NoError(t, err)
	claims, err = ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestJWT_Rejects(t *testing.T) {
	InitJWT("test-secret-123")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	expiredStr, err := expired.SignedString([]byte("test-secret-123"))
	require.NoError(t, err)

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	otherStr, err := otherKey.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1})
	noExpStr, err := noExp.SignedString([]byte("test-secret-123"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":   expiredStr,
		"wrong key": otherStr,
		"no exp":    noExpStr,
		"garbage":   "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWT(tok)
			assert.Error(t, err)
		})
	}
}
