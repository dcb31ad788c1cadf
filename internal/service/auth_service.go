package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/mint-booth/internal/auth"
	apperrors "github.com/mint-booth/internal/errors"
	"github.com/mint-booth/internal/logging"
)

// AdminCredentials are the configured admin username and password
type AdminCredentials struct {
	Username string
	Password string
}

// LoginResult is an issued admin token
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"-"`
}

// AuthService checks admin credentials and tokens
type AuthService struct {
	credentials AdminCredentials
	tokens      *auth.TokenManager
}

// NewAuthService creates an auth service
func NewAuthService(credentials AdminCredentials, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
	}
}

// TokenTTL returns how long an issued token stays valid
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Login exchanges admin credentials for a signed admin token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("Username and password are required")
	}
	if s.credentials.Username == "" || s.credentials.Password == "" {
		return nil, apperrors.NewMisconfiguredError("Admin credentials not configured")
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.credentials.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.credentials.Password)) == 1
	if !userOK || !passOK {
		logging.FromContext(ctx).Warn("Admin login rejected")
		return nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}

	token, expiresAt, err := s.tokens.Issue(auth.RoleAdmin)
	if errors.Is(err, auth.ErrMissingSecret) {
		return nil, apperrors.NewMisconfiguredError("JWT_SECRET not configured")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies an admin token and its role
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("Unauthorized: No token provided")
	}

	claims, err := s.tokens.Verify(token)
	if errors.Is(err, auth.ErrMissingSecret) {
		return nil, apperrors.NewMisconfiguredError("JWT_SECRET not configured")
	}
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Unauthorized: Invalid token")
	}

	if claims.Role != auth.RoleAdmin {
		return nil, apperrors.NewForbiddenError("Forbidden: Admin access required")
	}

	return claims, nil
}
