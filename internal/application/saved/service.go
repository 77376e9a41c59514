// Package saved manages a user's bookmarked recipes. Storage failures are
// logged and reported as false or an empty result; nothing here returns an
// error to the caller.
package saved

import (
	"context"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"go.uber.org/zap"
)

// Service implements inbound.SavedRecipeService
type Service struct {
	repo   outbound.SavedRecipeRepository
	logger *zap.Logger
}

var _ inbound.SavedRecipeService = (*Service)(nil)

// NewService creates a new saved recipe service
func NewService(repo outbound.SavedRecipeRepository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.Named("saved-service"),
	}
}

// Save bookmarks a recipe for userID
func (s *Service) Save(ctx context.Context, userID string, saved recipe.SavedRecipe) bool {
	if userID == "" {
		return false
	}
	if err := s.repo.Save(ctx, userID, saved); err != nil {
		s.logger.Error("Error saving recipe",
			zap.String("uid", userID),
			zap.Int64("recipe_id", saved.ID),
			zap.Error(err))
		return false
	}
	return true
}

// Unsave removes a bookmark
func (s *Service) Unsave(ctx context.Context, userID string, recipeID int64) bool {
	if userID == "" {
		return false
	}
	if err := s.repo.Delete(ctx, userID, recipeID); err != nil {
		s.logger.Error("Error removing saved recipe",
			zap.String("uid", userID),
			zap.Int64("recipe_id", recipeID),
			zap.Error(err))
		return false
	}
	return true
}

// IsSaved reports whether userID bookmarked recipeID. Lookup failures
// read as not saved.
func (s *Service) IsSaved(ctx context.Context, userID string, recipeID int64) bool {
	if userID == "" {
		return false
	}
	ok, err := s.repo.Exists(ctx, userID, recipeID)
	if err != nil {
		s.logger.Error("Error checking if recipe is saved",
			zap.String("uid", userID),
			zap.Int64("recipe_id", recipeID),
			zap.Error(err))
		return false
	}
	return ok
}

// List returns the user's bookmarks, most recently saved first
func (s *Service) List(ctx context.Context, userID string) []recipe.SavedRecipe {
	if userID == "" {
		return []recipe.SavedRecipe{}
	}
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		s.logger.Error("Error fetching saved recipes", zap.String("uid", userID), zap.Error(err))
		return []recipe.SavedRecipe{}
	}
	if list == nil {
		return []recipe.SavedRecipe{}
	}
	return list
}

// SavedIDs returns the set of recipe IDs the user bookmarked
func (s *Service) SavedIDs(ctx context.Context, userID string) map[int64]bool {
	if userID == "" {
		return map[int64]bool{}
	}
	ids, err := s.repo.ListIDs(ctx, userID)
	if err != nil {
		s.logger.Error("Error fetching saved recipe ids", zap.String("uid", userID), zap.Error(err))
		return map[int64]bool{}
	}
	if ids == nil {
		return map[int64]bool{}
	}
	return ids
}
