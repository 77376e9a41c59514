// Package discovery finds recipes through the recipe provider and
// classifies them into difficulty groups
package discovery

import (
	"context"
	"strings"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/search"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"github.com/gourmetguru/api/internal/ports/outbound"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"go.uber.org/zap"
)

// Messages shown when a search yields nothing
const (
	MessageNoRandomRecipes   = "No recipes found. Please check your API key or try again later."
	MessageNoMatchingRecipes = "No recipes found matching your criteria."
)

// Service implements inbound.DiscoveryService
type Service struct {
	provider outbound.RecipeProvider
	logger   *zap.Logger
}

var _ inbound.DiscoveryService = (*Service)(nil)

// NewService creates a new discovery service
func NewService(provider outbound.RecipeProvider, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger.Named("discovery-service"),
	}
}

// Search runs the parent search for a filter state. With no filter active
// it shows a random selection instead of an unfiltered search.
func (s *Service) Search(ctx context.Context, filters search.Filters) *inbound.SearchResult {
	if filters.IsDefault() {
		return s.result(inbound.SourceRandom, s.provider.GetRandom(ctx, nil, 0), MessageNoRandomRecipes)
	}

	recipes := s.provider.SearchByFilters(ctx, outbound.RecipeQuery{
		Query:    filters.Query(),
		Diet:     string(filters.Diet),
		Cuisine:  string(filters.Cuisine),
		Servings: filters.Servings,
	})
	return s.result(inbound.SourceSearch, recipes, MessageNoMatchingRecipes)
}

// ByIngredients ranks recipes by how many of ingredients they use
func (s *Service) ByIngredients(ctx context.Context, ingredients []string) *inbound.SearchResult {
	var f search.Filters
	for _, i := range ingredients {
		f.AddIngredient(strings.TrimSpace(i))
	}
	if len(f.Ingredients) == 0 {
		return s.result(inbound.SourceIngredients, nil, MessageNoMatchingRecipes)
	}

	return s.result(inbound.SourceIngredients, s.provider.SearchByIngredients(ctx, f.Ingredients), MessageNoMatchingRecipes)
}

// Random returns a random selection, optionally restricted by tags and
// servings
func (s *Service) Random(ctx context.Context, tags []string, servings int) *inbound.SearchResult {
	return s.result(inbound.SourceRandom, s.provider.GetRandom(ctx, tags, servings), MessageNoRandomRecipes)
}

// Details returns the full recipe or a not found error
func (s *Service) Details(ctx context.Context, id int64) (*recipe.Recipe, error) {
	if id <= 0 {
		return nil, apperrors.NewRecipeNotFoundError(id)
	}
	r := s.provider.GetDetails(ctx, id)
	if r == nil {
		return nil, apperrors.NewRecipeNotFoundError(id)
	}
	return r, nil
}

// Suggest returns ingredient name completions for query
func (s *Service) Suggest(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}
	}
	suggestions := s.provider.AutocompleteIngredients(ctx, query)
	if suggestions == nil {
		return []string{}
	}
	return suggestions
}

func (s *Service) result(source inbound.ResultSource, recipes []recipe.Recipe, emptyMessage string) *inbound.SearchResult {
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	recipes = recipe.Normalized(recipes)

	res := &inbound.SearchResult{
		Source:  source,
		Recipes: recipes,
		Groups:  recipe.Groups(recipes),
	}
	if len(recipes) == 0 {
		res.Message = emptyMessage
	}

	s.logger.Debug("Search completed",
		zap.String("source", string(source)),
		zap.Int("results", len(recipes)),
		zap.Int("groups", len(res.Groups)))
	return res
}
