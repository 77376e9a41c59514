package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"github.com/gourmetguru/api/test/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type RecipeCacheTestSuite struct {
	suite.Suite
	provider *testutils.MockRecipeProvider
	store    *testutils.InMemoryCache
	cache    *RecipeProviderCache
	factory  *testutils.RecipeFactory
	ctx      context.Context
}

func (s *RecipeCacheTestSuite) SetupTest() {
	s.provider = &testutils.MockRecipeProvider{}
	s.store = testutils.NewInMemoryCache()
	s.cache = NewRecipeProviderCache(s.provider, s.store, 10*time.Minute, zap.NewNop())
	s.factory = testutils.NewRecipeFactory(42)
	s.ctx = context.Background()
}

func (s *RecipeCacheTestSuite) TearDownTest() {
	s.provider.AssertExpectations(s.T())
}

func (s *RecipeCacheTestSuite) TestSearchIsServedFromCacheOnSecondCall() {
	q := outbound.RecipeQuery{Query: "tomato,basil", Diet: "vegan", Servings: 2}
	recipes := s.factory.Recipes(3)
	s.provider.On("SearchByFilters", s.ctx, q).Return(recipes).Once()

	first := s.cache.SearchByFilters(s.ctx, q)
	second := s.cache.SearchByFilters(s.ctx, q)

	s.Equal(recipes, first)
	s.Require().Len(second, 3)
	for i := range recipes {
		s.Equal(recipes[i].ID, second[i].ID)
		s.Equal(recipes[i].Difficulty, second[i].Difficulty)
	}
	s.Equal(1, s.store.Sets)
	s.Equal(10*time.Minute, s.store.TTL(s.store.Keys()[0]))
}

func (s *RecipeCacheTestSuite) TestDistinctQueriesUseDistinctKeys() {
	a := outbound.RecipeQuery{Query: "egg"}
	b := outbound.RecipeQuery{Query: "egg", Cuisine: "italian"}
	s.provider.On("SearchByFilters", s.ctx, a).Return(s.factory.Recipes(1)).Once()
	s.provider.On("SearchByFilters", s.ctx, b).Return(s.factory.Recipes(1)).Once()

	s.cache.SearchByFilters(s.ctx, a)
	s.cache.SearchByFilters(s.ctx, b)

	s.Len(s.store.Keys(), 2)
}

func (s *RecipeCacheTestSuite) TestEmptyResultsAreNotCached() {
	q := outbound.RecipeQuery{Query: "nothing"}
	s.provider.On("SearchByFilters", s.ctx, q).Return([]recipe.Recipe{}).Twice()

	s.Empty(s.cache.SearchByFilters(s.ctx, q))
	s.Empty(s.cache.SearchByFilters(s.ctx, q))
	s.Zero(s.store.Sets)
}

func (s *RecipeCacheTestSuite) TestIngredientSearchIsCached() {
	ingredients := []string{"chicken", "rice"}
	s.provider.On("SearchByIngredients", s.ctx, ingredients).Return(s.factory.Recipes(2)).Once()

	s.Len(s.cache.SearchByIngredients(s.ctx, ingredients), 2)
	s.Len(s.cache.SearchByIngredients(s.ctx, ingredients), 2)
}

func (s *RecipeCacheTestSuite) TestDetailsAreCachedAndMissesPassThrough() {
	detailed := s.factory.DetailedRecipe()
	s.provider.On("GetDetails", s.ctx, detailed.ID).Return(&detailed).Once()
	s.provider.On("GetDetails", s.ctx, int64(1)).Return(nil).Twice()

	first := s.cache.GetDetails(s.ctx, detailed.ID)
	second := s.cache.GetDetails(s.ctx, detailed.ID)
	s.Require().NotNil(first)
	s.Require().NotNil(second)
	s.Equal(detailed.Title, second.Title)
	s.Len(second.ExtendedIngredients, 3)

	s.Nil(s.cache.GetDetails(s.ctx, 1))
	s.Nil(s.cache.GetDetails(s.ctx, 1))
}

func (s *RecipeCacheTestSuite) TestRandomAndAutocompleteBypassCache() {
	s.provider.On("GetRandom", s.ctx, []string(nil), 0).Return(s.factory.Recipes(2)).Twice()
	s.provider.On("AutocompleteIngredients", s.ctx, "tom").Return([]string{"tomato"}).Twice()

	s.cache.GetRandom(s.ctx, nil, 0)
	s.cache.GetRandom(s.ctx, nil, 0)
	s.cache.AutocompleteIngredients(s.ctx, "tom")
	s.cache.AutocompleteIngredients(s.ctx, "tom")

	s.Zero(s.store.Sets)
	s.Zero(s.store.Gets)
}

func (s *RecipeCacheTestSuite) TestUndecodableEntryIsDiscarded() {
	s.store.Put("recipes:details:7", []byte("{not json"))
	r := s.factory.Recipe()
	r.ID = 7
	s.provider.On("GetDetails", s.ctx, int64(7)).Return(&r).Once()

	got := s.cache.GetDetails(s.ctx, 7)

	s.Require().NotNil(got)
	s.Equal(r.Title, got.Title)
	s.Equal(1, s.store.Sets)
}

func (s *RecipeCacheTestSuite) TestCacheFailureFallsBackToProvider() {
	s.store.Errors["get"] = errors.New("connection refused")
	s.store.Errors["set"] = errors.New("connection refused")
	q := outbound.RecipeQuery{Query: "egg"}
	s.provider.On("SearchByFilters", s.ctx, mock.Anything).Return(s.factory.Recipes(2)).Twice()

	s.Len(s.cache.SearchByFilters(s.ctx, q), 2)
	s.Len(s.cache.SearchByFilters(s.ctx, q), 2)
}

func TestRecipeCacheTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeCacheTestSuite))
}
