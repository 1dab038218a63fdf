package services_test

import (
	"strings"
	"testing"
	"time"

	"toolsnest/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret"

func signClaims(t *testing.T, claims jwt.Claims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := services.NewTokenService(testSecret, 0)

	token, err := tokens.Issue("a@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	subject, err := tokens.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
}

func TestTokenService_IssueExpiresInOneHour(t *testing.T) {
	tokens := services.NewTokenService(testSecret, 0)
	before := time.Now()

	token, err := tokens.Issue("a@x.com")
	require.NoError(t, err)

	claims := &services.Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, claims.IssuedAt+int64(time.Hour/time.Second), claims.ExpiresAt)
	assert.InDelta(t, before.Add(time.Hour).Unix(), claims.ExpiresAt, 2)
}

func TestTokenService_VerifyRejects(t *testing.T) {
	tokens := services.NewTokenService(testSecret, 0)
	valid, err := tokens.Issue("a@x.com")
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	expired := signClaims(t, services.Claims{
		Email: "a@x.com",
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	}, testSecret)

	noSubject := signClaims(t, services.Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}, testSecret)

	noExpiry := signClaims(t, services.Claims{Email: "a@x.com"}, testSecret)

	wrongSecret := signClaims(t, services.Claims{
		Email:          "a@x.com",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}, "other_secret")

	cases := map[string]string{
		"empty":        "",
		"garbage":      "invalid.token.string",
		"tampered":     tampered,
		"expired":      expired,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"wrong secret": wrongSecret,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token)
			assert.ErrorIs(t, err, services.ErrInvalidToken)
		})
	}
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	tokens := services.NewTokenService(testSecret, 0)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, services.Claims{
		Email:          "a@x.com",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}
