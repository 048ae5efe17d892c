package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService mints and verifies the access tokens the API trusts. Identity
// management itself (registration, login, refresh) lives upstream; a token
// arriving here is already someone's proof of identity.
type JWTService interface {
	// GenerateToken creates a signed access token for the given user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks the token's signature, validity window, and
	// purpose, returning its claims. Failures map to this package's
	// sentinel errors.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated view of a token handed to callers: the registered
// JWT claims plus this API's custom fields.
type Claims struct {
	// UserID identifies the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// TokenType states the token's purpose; only "access" is honored.
	TokenType string `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
