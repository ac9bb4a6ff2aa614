package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/slatechat/slate-server/internal/core"
	"github.com/slatechat/slate-server/internal/store"
)

var (
	// ErrMissingCredential is returned when no credential was supplied.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential is returned when the credential fails
	// validation or does not map to a known user.
	ErrInvalidCredential = errors.New("invalid credential")
)

// Service is the auth gate: it verifies bearer credentials and produces
// identity records. Token issuance lives elsewhere in the product; this
// server only mints tokens through the dev CLI.
type Service struct {
	users     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new auth gate over the given user store.
func NewService(users store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		users:     users,
		jwtConfig: jwtConfig,
	}
}

// Verify validates the credential and hydrates the identity record from
// the user's stored profile. Implements core.IdentityVerifier.
func (s *Service) Verify(ctx context.Context, credential string) (*core.Identity, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	claims, err := ValidateToken(s.jwtConfig, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown user", ErrInvalidCredential)
	}

	// A token minted for another tenant must never attach to this user.
	if user.TenantID != claims.TenantID {
		return nil, fmt.Errorf("%w: tenant does not match profile", ErrInvalidCredential)
	}

	return &core.Identity{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		Role:        user.Role,
		DisplayName: user.DisplayName,
		Avatar:      user.Avatar,
		PublicKey:   user.PublicKey,
	}, nil
}

// ValidateToken parses and validates a raw bearer token. Used by HTTP
// middleware, which needs claims but not the full identity hydration.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, token)
}

// Issue mints a token for an existing user. Used by the dev CLI and tests.
func (s *Service) Issue(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	return GenerateToken(s.jwtConfig, user.ID, user.TenantID, user.Role)
}
