package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"github.com/gourmetguru/api/test/testutils"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	accounts *testutils.MockAccountRepository
	tokens   *testutils.MockSessionTokens
	service  *Service
	policy   user.PasswordPolicy
	ctx      context.Context
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.accounts = &testutils.MockAccountRepository{}
	s.tokens = &testutils.MockSessionTokens{}
	s.policy = user.PasswordPolicy{MinLength: 6, BCryptCost: bcrypt.MinCost}
	s.service = NewService(s.accounts, s.tokens, s.policy, zap.NewNop())
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) TearDownTest() {
	s.accounts.AssertExpectations(s.T())
	s.tokens.AssertExpectations(s.T())
}

func (s *AuthServiceTestSuite) assertAppError(err error, code apperrors.ErrorCode, message string) {
	s.Require().Error(err)
	var appErr *apperrors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(code, appErr.Code)
	if message != "" {
		s.Equal(message, appErr.Message)
	}
}

func (s *AuthServiceTestSuite) TestSignUpOpensSession() {
	expiresAt := time.Now().Add(time.Hour)
	s.accounts.On("Create", s.ctx, mock.AnythingOfType("*user.Account")).Return(nil).Once()
	s.tokens.On("Issue", mock.MatchedBy(func(id user.Identity) bool {
		return id.Email == "cook@example.com" && id.UID != ""
	})).Return("signed", expiresAt, nil).Once()

	session, err := s.service.SignUp(s.ctx, "Cook@Example.com", "secret1")

	s.Require().NoError(err)
	s.Equal("signed", session.Token)
	s.Equal(expiresAt, session.ExpiresAt)
	s.Equal("cook@example.com", session.User.Email)
}

func (s *AuthServiceTestSuite) TestSignUpRejectsWeakPassword() {
	_, err := s.service.SignUp(s.ctx, "cook@example.com", "123")
	s.assertAppError(err, apperrors.CodeWeakPassword, "Password should be at least 6 characters")
}

func (s *AuthServiceTestSuite) TestSignUpRejectsInvalidEmail() {
	_, err := s.service.SignUp(s.ctx, "not an email", "secret1")
	s.assertAppError(err, apperrors.CodeInvalidEmail, "Invalid email address")
}

func (s *AuthServiceTestSuite) TestSignUpDuplicateEmail() {
	s.accounts.On("Create", s.ctx, mock.Anything).Return(outbound.ErrDuplicateEmail).Once()

	_, err := s.service.SignUp(s.ctx, "cook@example.com", "secret1")
	s.assertAppError(err, apperrors.CodeEmailAlreadyExists, "An account with this email already exists")
}

func (s *AuthServiceTestSuite) TestSignUpStorageFailure() {
	s.accounts.On("Create", s.ctx, mock.Anything).Return(errors.New("disk full")).Once()

	_, err := s.service.SignUp(s.ctx, "cook@example.com", "secret1")
	s.assertAppError(err, apperrors.CodeDatabaseError, "")
}

func (s *AuthServiceTestSuite) TestSignIn() {
	account, err := user.NewAccount("cook@example.com", "secret1", s.policy)
	s.Require().NoError(err)

	s.accounts.On("FindByEmail", s.ctx, "cook@example.com").Return(account, nil)
	s.tokens.On("Issue", *account.Identity()).Return("signed", time.Now(), nil).Once()

	session, err := s.service.SignIn(s.ctx, "cook@example.com", "secret1")
	s.Require().NoError(err)
	s.Equal(account.ID().String(), session.User.UID)

	_, err = s.service.SignIn(s.ctx, "cook@example.com", "wrong-password")
	s.assertAppError(err, apperrors.CodeInvalidCredentials, "Invalid email or password")
}

func (s *AuthServiceTestSuite) TestSignInUnknownAccount() {
	s.accounts.On("FindByEmail", s.ctx, "ghost@example.com").Return(nil, outbound.ErrAccountNotFound).Once()

	_, err := s.service.SignIn(s.ctx, "ghost@example.com", "secret1")
	s.assertAppError(err, apperrors.CodeInvalidCredentials, "Invalid email or password")
}

func (s *AuthServiceTestSuite) TestSignInEmptyCredentials() {
	_, err := s.service.SignIn(s.ctx, " ", "")
	s.assertAppError(err, apperrors.CodeInvalidCredentials, "")
}

func (s *AuthServiceTestSuite) TestSignOut() {
	s.tokens.On("Revoke", s.ctx, "good").Return(nil).Once()
	s.tokens.On("Revoke", s.ctx, "bad").Return(outbound.ErrInvalidToken).Once()

	s.NoError(s.service.SignOut(s.ctx, "good"))
	s.assertAppError(s.service.SignOut(s.ctx, "bad"), apperrors.CodeUnauthorized, "")
}

func (s *AuthServiceTestSuite) TestAuthenticate() {
	identity := &user.Identity{UID: "u1", Email: "cook@example.com"}
	s.tokens.On("Verify", s.ctx, "good").Return(identity, nil).Once()
	s.tokens.On("Verify", s.ctx, "revoked").Return(nil, outbound.ErrTokenRevoked).Once()
	s.tokens.On("Verify", s.ctx, "forged").Return(nil, outbound.ErrInvalidToken).Once()

	got, err := s.service.Authenticate(s.ctx, "good")
	s.Require().NoError(err)
	s.Equal(identity, got)

	_, err = s.service.Authenticate(s.ctx, "revoked")
	s.assertAppError(err, apperrors.CodeTokenRevoked, "Session has been signed out")

	_, err = s.service.Authenticate(s.ctx, "forged")
	s.assertAppError(err, apperrors.CodeUnauthorized, "")
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
