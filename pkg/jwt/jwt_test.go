package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

func TestGenerateAndValidate(t *testing.T) {
	service := NewService(testSecret, time.Hour)

	token, err := service.GenerateAccessToken("admin", []string{RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.True(t, claims.HasRole(RoleAdmin))
	assert.False(t, claims.HasRole("passenger"))
	assert.NotEmpty(t, claims.ID)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	token, err := service.GenerateAccessToken("admin", []string{RoleAdmin})
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss": Issuer,
		"sub": "admin",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "someone-else",
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		service *Service
		token   string
	}{
		{"garbage", service, "invalid.token.here"},
		{"wrong secret", NewService("wrong-secret", time.Hour), token},
		{"none algorithm", service, noneToken},
		{"foreign issuer", service, foreign},
		{"empty", service, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.service.ValidateAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	service := NewService(testSecret, time.Minute)
	service.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := service.GenerateAccessToken("admin", []string{RoleAdmin})
	require.NoError(t, err)

	service.now = time.Now
	_, err = service.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestGetTokenExpiry(t *testing.T) {
	service := NewService(testSecret, 30*time.Minute)
	before := time.Now()

	token, err := service.GenerateAccessToken("admin", nil)
	require.NoError(t, err)

	expiry, err := service.GetTokenExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(30*time.Minute), expiry, 2*time.Second)

	_, err = service.GetTokenExpiry("not-a-token")
	assert.Error(t, err)
	assert.Equal(t, 30*time.Minute, service.Expiry())
}
