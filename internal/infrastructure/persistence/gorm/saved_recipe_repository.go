package gorm

import (
	"context"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedRecipeRepository stores bookmarks in the saved_recipes table keyed
// by (user_id, recipe_id)
type SavedRecipeRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ outbound.SavedRecipeRepository = (*SavedRecipeRepository)(nil)

// NewSavedRecipeRepository creates a new saved recipe repository
func NewSavedRecipeRepository(db *gorm.DB) *SavedRecipeRepository {
	return &SavedRecipeRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Save upserts a bookmark and stamps SavedAt with the current time
func (r *SavedRecipeRepository) Save(ctx context.Context, userID string, saved recipe.SavedRecipe) error {
	if err := saved.Validate(); err != nil {
		return err
	}

	saved.SavedAt = r.now()
	model := savedToModel(userID, saved)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Delete removes a bookmark. Deleting an absent bookmark is not an error.
func (r *SavedRecipeRepository) Delete(ctx context.Context, userID string, recipeID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&SavedRecipeModel{}).Error
}

// Exists reports whether the user bookmarked recipeID
func (r *SavedRecipeRepository) Exists(ctx context.Context, userID string, recipeID int64) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&SavedRecipeModel{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// List returns the user's bookmarks, most recently saved first
func (r *SavedRecipeRepository) List(ctx context.Context, userID string) ([]recipe.SavedRecipe, error) {
	var models []SavedRecipeModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("saved_at DESC").
		Order("recipe_id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	saved := make([]recipe.SavedRecipe, 0, len(models))
	for i := range models {
		saved = append(saved, modelToSaved(&models[i]))
	}
	return saved, nil
}

// ListIDs returns the set of recipe IDs the user bookmarked
func (r *SavedRecipeRepository) ListIDs(ctx context.Context, userID string) (map[int64]bool, error) {
	var ids []int64
	result := r.db.WithContext(ctx).Model(&SavedRecipeModel{}).
		Where("user_id = ?", userID).
		Pluck("recipe_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
