package service

// TokenService issues and validates the bearer tokens guarding the admin
// surface.
type TokenService interface {
	// GenerateAdminToken signs a token for the given operator subject.
	GenerateAdminToken(subject string) (string, error)

	// Validate checks a token string and returns its subject.
	Validate(tokenString string) (string, error)
}
