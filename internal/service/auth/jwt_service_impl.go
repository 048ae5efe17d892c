package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/draftforge/draftforge-api/internal/config"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
)

// accessTokenType is the only token purpose this API honors.
const accessTokenType = "access"

// clockSkewAllowance absorbs clock drift between the token issuer and this
// service during validation.
const clockSkewAllowance = 2 * time.Minute

// minSecretLength guards against secrets too short for HMAC-SHA256 to mean
// anything.
const minSecretLength = 32

// hmacJWTService implements JWTService with HMAC-SHA256 signing.
type hmacJWTService struct {
	signingKey    []byte
	tokenLifetime time.Duration
	clockSkew     time.Duration

	// timeFunc supplies the current time; injectable so tests can issue
	// tokens at arbitrary moments.
	timeFunc func() time.Time
}

var _ JWTService = (*hmacJWTService)(nil)

// jwtCustomClaims is the on-wire claims layout.
type jwtCustomClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// NewJWTService creates a JWTService signing with HMAC-SHA256.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}

	return &hmacJWTService{
		signingKey:    []byte(cfg.JWTSecret),
		tokenLifetime: time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		clockSkew:     clockSkewAllowance,
		timeFunc:      time.Now,
	}, nil
}

// GenerateToken mints a signed access token for the user.
func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	now := s.timeFunc()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		UserID:    userID,
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifetime)),
			ID:        uuid.New().String(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign access token",
			"error", err,
			"user_id", userID)
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

// ValidateToken verifies a token's signature, validity window, and purpose,
// returning its claims.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, mapParseError(err, log)
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}

	if claims.TokenType != accessTokenType {
		log.Debug("token validation failed: wrong token type",
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	return &Claims{
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}

// mapParseError narrows jwt parse failures to this package's sentinels.
// Everything that is not a timing problem collapses into ErrInvalidToken so
// callers cannot distinguish forged from garbled tokens.
func mapParseError(err error, log *slog.Logger) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		log.Debug("token validation failed: expired", "error", err)
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		log.Debug("token validation failed: not yet valid", "error", err)
		return ErrTokenNotYetValid
	default:
		log.Debug("token validation failed", "error", err)
		return ErrInvalidToken
	}
}
