package auth

import (
	"testing"
	"time"

	"dailypush/config"
	domainerrors "dailypush/internal/domain/errors"
	"dailypush/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.SecretKey.Admin = secret

	return cfg
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(testConfig(""))
	assert.Error(t, err)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService(testConfig("test-secret"))
	require.NoError(t, err)

	token, err := svc.GenerateAdminToken("ops@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", subject)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	issuer, err := NewJWTService(testConfig("secret-a"))
	require.NoError(t, err)
	verifier, err := NewJWTService(testConfig("secret-b"))
	require.NoError(t, err)

	token, err := issuer.GenerateAdminToken("ops@example.com")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidToken))
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc, err := NewJWTService(testConfig("test-secret"))
	require.NoError(t, err)

	_, err = svc.Validate("not.a.token")
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTService(testConfig("test-secret"))
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"sub":  "ops@example.com",
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(-time.Hour).Unix(),
		"type": "admin",
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Validate(expired)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidToken))
}

func TestJWTService_RejectsMissingSubject(t *testing.T) {
	svc, err := NewJWTService(testConfig("test-secret"))
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsUnexpectedSigningMethod(t *testing.T) {
	svc, err := NewJWTService(testConfig("test-secret"))
	require.NoError(t, err)

	// alg=none tokens must never validate.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "ops@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Validate(unsigned)
	assert.Error(t, err)
}
