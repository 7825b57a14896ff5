package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yski/yski-client/internal/models"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestParseUnverified_Valid(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	raw := signed(t, Claims{
		Role:  models.RolePengurus,
		Email: "p@yski.org",
		Type:  "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	claims, err := ParseUnverified(raw)
	require.NoError(t, err)
	assert.Equal(t, models.RolePengurus, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "access", claims.Type)

	got, ok := claims.Expiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))
}

func TestParseUnverified_IgnoresSignatureAndExpiry(t *testing.T) {
	raw := signed(t, Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	// подменяем подпись
	tampered := raw[:len(raw)-4] + "AAAA"

	claims, err := ParseUnverified(tampered)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestParseUnverified_NonStringRole(t *testing.T) {
	for _, role := range []string{`42`, `["admin"]`, `{"name":"admin"}`, `null`, `true`} {
		payload := `{"sub":"uid-1","role":` + role + `,"exp":9999999999}`
		raw := "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"

		claims, err := ParseUnverified(raw)
		require.NoError(t, err, role)
		assert.Equal(t, models.Role(""), claims.Role, role)
		assert.Equal(t, "uid-1", claims.Subject, role)
		_, ok := claims.Expiry()
		assert.True(t, ok, role)
	}
}

func TestParseUnverified_Malformed(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	notJSON := base64.RawURLEncoding.EncodeToString([]byte(`role=admin`))

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "single segment", raw: "abc"},
		{name: "two segments", raw: header + ".abc"},
		{name: "four segments", raw: header + ".a.b.c"},
		{name: "payload not base64", raw: header + ".!!!.sig"},
		{name: "payload not json", raw: header + "." + notJSON + ".sig"},
		{name: "header not json", raw: notJSON + "." + notJSON + ".sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseUnverified(tt.raw)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, claims)
		})
	}
}

func TestClaims_ExpiresWithin(t *testing.T) {
	now := time.Now()
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(3 * time.Minute))}}

	assert.True(t, c.ExpiresWithin(now, 5*time.Minute))
	assert.False(t, c.ExpiresWithin(now, time.Minute))

	noExp := &Claims{}
	assert.False(t, noExp.ExpiresWithin(now, time.Hour))
	_, ok := noExp.Remaining(now)
	assert.False(t, ok)
}
