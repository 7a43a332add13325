// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dailypush/config"
	domainerrors "dailypush/internal/domain/errors"
	"dailypush/internal/domain/service"
	"dailypush/internal/errors"
)

const adminTokenTTL = 12 * time.Hour

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret string
	ttl    time.Duration
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Admin == "" {
		return nil, errors.New("admin jwt secret must be provided")
	}

	return &jwtService{
		secret: cfg.SecretKey.Admin,
		ttl:    adminTokenTTL,
	}, nil
}

// GenerateAdminToken creates a signed token for an operator subject.
func (s *jwtService) GenerateAdminToken(subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(s.ttl).Unix(),
		"type": "admin",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.secret))
}

// Validate checks the token signature and expiry and returns the subject.
func (s *jwtService) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return "", domainerrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domainerrors.ErrInvalidToken
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", domainerrors.ErrInvalidToken
	}

	return subject, nil
}
