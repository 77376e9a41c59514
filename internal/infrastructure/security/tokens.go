// Package security issues and verifies session tokens and validates
// request payloads
package security

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = outbound.ErrInvalidToken
	ErrTokenRevoked = outbound.ErrTokenRevoked
)

const revokedKeyPrefix = "revoked_token:"

// Claims represents JWT claims structure
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenConfig configures token issuance
type TokenConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// TokenService issues HS256 session tokens and keeps a revocation list in
// the cache. Revoked IDs live until the token would have expired anyway.
type TokenService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	revoked    outbound.CacheRepository
	logger     *zap.Logger
	now        func() time.Time
}

var _ outbound.SessionTokens = (*TokenService)(nil)

// NewTokenService creates a token service
func NewTokenService(cfg TokenConfig, revoked outbound.CacheRepository, logger *zap.Logger) *TokenService {
	expiration := cfg.Expiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		expiration: expiration,
		issuer:     cfg.Issuer,
		revoked:    revoked,
		logger:     logger.Named("tokens"),
		now:        time.Now,
	}
}

// Issue creates a signed token for identity
func (s *TokenService) Issue(identity user.Identity) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiration)

	claims := Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.UID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse checks the signature, lifetime and revocation status of
// tokenString and returns its claims
func (s *TokenService) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	// Fails closed: a token whose revocation cannot be checked is rejected
	revoked, err := s.revoked.Exists(ctx, revokedKeyPrefix+claims.ID)
	if err != nil {
		s.logger.Warn("Failed to check token revocation", zap.String("jti", claims.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: revocation check failed: %v", ErrInvalidToken, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Verify returns the identity a valid token was issued to
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*user.Identity, error) {
	claims, err := s.Parse(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

// Revoke adds a valid token's ID to the revocation list
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.Parse(ctx, tokenString)
	if err != nil {
		return err
	}
	return s.revokeClaims(ctx, claims)
}

func (s *TokenService) revokeClaims(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(s.now()); remaining > ttl {
			ttl = remaining
		}
	}
	return s.revoked.Set(ctx, revokedKeyPrefix+claims.ID, []byte("revoked"), ttl)
}

// Identity returns the principal a token was issued to
func (c *Claims) Identity() *user.Identity {
	return &user.Identity{UID: c.Subject, Email: c.Email}
}
