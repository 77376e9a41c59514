// Package auth is the identity provider: account sign-up and sign-in with
// session tokens. Failures are returned to the caller as *errors.AppError
// values whose message can be shown to the user as is.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"github.com/gourmetguru/api/internal/ports/outbound"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"go.uber.org/zap"
)

// Service implements inbound.AuthService
type Service struct {
	accounts outbound.AccountRepository
	tokens   outbound.SessionTokens
	policy   user.PasswordPolicy
	logger   *zap.Logger
}

var _ inbound.AuthService = (*Service)(nil)

// NewService creates a new auth service
func NewService(
	accounts outbound.AccountRepository,
	tokens outbound.SessionTokens,
	policy user.PasswordPolicy,
	logger *zap.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		policy:   policy,
		logger:   logger.Named("auth-service"),
	}
}

// SignUp registers a new account and opens a session for it
func (s *Service) SignUp(ctx context.Context, email, password string) (*inbound.Session, error) {
	account, err := user.NewAccount(email, password, s.policy)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidEmail):
			return nil, apperrors.NewInvalidEmailError()
		case errors.Is(err, user.ErrPasswordTooShort):
			return nil, apperrors.NewWeakPasswordError(s.policy.MinLength)
		case errors.Is(err, user.ErrPasswordTooLong):
			return nil, apperrors.NewBadRequestError("Password is too long")
		}
		s.logger.Error("Failed to create account", zap.Error(err))
		return nil, apperrors.NewInternalError("Failed to create account")
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, outbound.ErrDuplicateEmail) {
			return nil, apperrors.NewEmailAlreadyExistsError(account.Email())
		}
		s.logger.Error("Failed to store account", zap.Error(err))
		return nil, apperrors.NewDatabaseError("create account", err)
	}

	s.logger.Info("Account created", zap.String("uid", account.ID().String()))
	return s.openSession(account)
}

// SignIn checks credentials and opens a session
func (s *Service) SignIn(ctx context.Context, email, password string) (*inbound.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.NewInvalidCredentialsError()
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, outbound.ErrAccountNotFound) {
			return nil, apperrors.NewInvalidCredentialsError()
		}
		s.logger.Error("Failed to look up account", zap.Error(err))
		return nil, apperrors.NewDatabaseError("find account", err)
	}

	if err := account.CheckPassword(password); err != nil {
		s.logger.Debug("Rejected sign-in", zap.String("uid", account.ID().String()))
		return nil, apperrors.NewInvalidCredentialsError()
	}

	return s.openSession(account)
}

// SignOut revokes token
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		if errors.Is(err, outbound.ErrInvalidToken) || errors.Is(err, outbound.ErrTokenRevoked) {
			return apperrors.NewUnauthorizedError("Invalid or expired session")
		}
		s.logger.Error("Failed to revoke session", zap.Error(err))
		return apperrors.NewInternalError("Failed to sign out")
	}
	return nil
}

// Authenticate resolves a session token to the signed-in identity
func (s *Service) Authenticate(ctx context.Context, token string) (*user.Identity, error) {
	identity, err := s.tokens.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, outbound.ErrTokenRevoked) {
			return nil, apperrors.NewTokenRevokedError()
		}
		return nil, apperrors.NewUnauthorizedError("Invalid or expired session")
	}
	return identity, nil
}

func (s *Service) openSession(account *user.Account) (*inbound.Session, error) {
	identity := account.Identity()

	token, expiresAt, err := s.tokens.Issue(*identity)
	if err != nil {
		s.logger.Error("Failed to issue session token", zap.Error(err))
		return nil, apperrors.NewInternalError("Failed to start session")
	}

	return &inbound.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *identity,
	}, nil
}
