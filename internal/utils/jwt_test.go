package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestParseBearerToken(t *testing.T) {
	token, err := ParseBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestParseBearerToken_Invalid(t *testing.T) {
	for _, header := range []string{"", "Bearer", "Bearer ", "abc"} {
		_, err := ParseBearerToken(header)
		assert.Error(t, err, "header %q", header)
	}
}

func TestParseSubjectFromJWT(t *testing.T) {
	signed := signedToken(t, jwt.RegisteredClaims{Subject: "u1"})

	sub, err := ParseSubjectFromJWT(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}

func TestParseSubjectFromJWT_EmptySubject(t *testing.T) {
	signed := signedToken(t, jwt.RegisteredClaims{Issuer: "sync"})

	_, err := ParseSubjectFromJWT(signed)
	require.Error(t, err)
}

func TestParseSubjectFromJWT_Garbage(t *testing.T) {
	_, err := ParseSubjectFromJWT("not-a-token")
	require.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	now := time.Now()

	expired := signedToken(t, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	})
	live := signedToken(t, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	noExp := signedToken(t, jwt.RegisteredClaims{Subject: "u1"})

	gotExpired, err := JWTExpired(expired, now)
	require.NoError(t, err)
	assert.True(t, gotExpired)

	gotLive, err := JWTExpired(live, now)
	require.NoError(t, err)
	assert.False(t, gotLive)

	gotNoExp, err := JWTExpired(noExp, now)
	require.NoError(t, err)
	assert.False(t, gotNoExp)
}
