package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() models.JWTClaims {
	return models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleAdvisor,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "registrar",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateTokenAcceptsSignedClaims(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "registrar"})
	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims()))
	require.NoError(t, err)
	assert.Equal(t, models.Actor{UserID: "user-1", Role: models.RoleAdvisor}, claims.Actor())
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})
	c := validClaims()
	c.UserID = ""
	c.Subject = "user-9"
	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte("secret"), c))
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.UserID)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "registrar"})

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	unknownRole := validClaims()
	unknownRole.Role = "TEACHER"

	cases := map[string]string{
		"wrong secret": signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
		"expired":      signToken(t, jwt.SigningMethodHS256, []byte("secret"), expired),
		"issuer":       signToken(t, jwt.SigningMethodHS256, []byte("secret"), wrongIssuer),
		"unknown role": signToken(t, jwt.SigningMethodHS256, []byte("secret"), unknownRole),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
