//go:build integration
// +build integration

// Package integration runs the persistence adapters against real backends
// started with testcontainers.
package integration

import (
	"context"
	"testing"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
	gormRepo "github.com/gourmetguru/api/internal/infrastructure/persistence/gorm"
	"github.com/gourmetguru/api/internal/infrastructure/persistence/migrations"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"github.com/gourmetguru/api/test/testutils"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

// PostgresIntegrationTestSuite migrates a fresh database and exercises the
// GORM repositories on it
type PostgresIntegrationTestSuite struct {
	suite.Suite
	pg       *testutils.PostgresContainer
	accounts *gormRepo.AccountRepository
	saved    *gormRepo.SavedRecipeRepository
	factory  *testutils.RecipeFactory
	ctx      context.Context
}

func (s *PostgresIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = testutils.SetupPostgresContainer(s.T())

	sqlDB, err := s.pg.DB.DB()
	s.Require().NoError(err)
	migrator, err := migrations.New(sqlDB, "gourmet_test", zaptest.NewLogger(s.T()))
	s.Require().NoError(err)
	s.Require().NoError(migrator.Up())

	version, dirty, err := migrator.Version()
	s.Require().NoError(err)
	s.False(dirty)
	s.GreaterOrEqual(version, uint(2))

	s.accounts = gormRepo.NewAccountRepository(s.pg.DB)
	s.saved = gormRepo.NewSavedRecipeRepository(s.pg.DB)
	s.factory = testutils.NewRecipeFactory(99)
}

func (s *PostgresIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.pg.DB.Exec("TRUNCATE saved_recipes, accounts CASCADE").Error)
}

func (s *PostgresIntegrationTestSuite) newAccount(email string) *user.Account {
	account, err := user.NewAccount(email, "correct-horse", user.PasswordPolicy{MinLength: 6, BCryptCost: 4})
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Create(s.ctx, account))
	return account
}

func (s *PostgresIntegrationTestSuite) TestAccountRoundTrip() {
	created := s.newAccount("Cook@Example.com")

	found, err := s.accounts.FindByEmail(s.ctx, "cook@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID(), found.ID())
	s.NoError(found.CheckPassword("correct-horse"))

	byID, err := s.accounts.FindByID(s.ctx, created.ID().String())
	s.Require().NoError(err)
	s.Equal("cook@example.com", byID.Email())
}

func (s *PostgresIntegrationTestSuite) TestDuplicateEmailRejected() {
	s.newAccount("cook@example.com")

	again, err := user.NewAccount("cook@example.com", "another-pass", user.PasswordPolicy{MinLength: 6, BCryptCost: 4})
	s.Require().NoError(err)
	s.ErrorIs(s.accounts.Create(s.ctx, again), outbound.ErrDuplicateEmail)
}

func (s *PostgresIntegrationTestSuite) TestSavedRecipesAreScopedPerUser() {
	alice := s.newAccount("alice@example.com").ID().String()
	bob := s.newAccount("bob@example.com").ID().String()

	first := s.factory.SavedRecipe()
	second := s.factory.SavedRecipe()
	s.Require().NoError(s.saved.Save(s.ctx, alice, first))
	s.Require().NoError(s.saved.Save(s.ctx, alice, second))
	// Saving again refreshes the snapshot and moves it to the front
	s.Require().NoError(s.saved.Save(s.ctx, alice, first))

	list, err := s.saved.List(s.ctx, alice)
	s.Require().NoError(err)
	s.Len(list, 2)
	s.Equal(first.ID, list[0].ID)

	ids, err := s.saved.ListIDs(s.ctx, bob)
	s.Require().NoError(err)
	s.Empty(ids)

	exists, err := s.saved.Exists(s.ctx, alice, first.ID)
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(s.saved.Delete(s.ctx, alice, first.ID))
	ids, err = s.saved.ListIDs(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(map[int64]bool{second.ID: true}, ids)
}

func (s *PostgresIntegrationTestSuite) TestSavedDifficultyIsPersisted() {
	alice := s.newAccount("alice@example.com").ID().String()
	hard := s.factory.SavedRecipe()
	hard.ReadyInMinutes = 90
	hard.Difficulty = recipe.Classify(90)
	s.Require().NoError(s.saved.Save(s.ctx, alice, hard))

	list, err := s.saved.List(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(recipe.DifficultyHard, list[0].Difficulty)
}

func TestPostgresIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresIntegrationTestSuite))
}
