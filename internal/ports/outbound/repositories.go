// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
)

var (
	// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
	ErrCacheMiss = errors.New("cache miss")
	// ErrAccountNotFound is returned when no account matches a lookup
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when an account already uses the email
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidToken is returned for malformed, forged or expired session tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned for session tokens that were signed out
	ErrTokenRevoked = errors.New("token has been revoked")
)

// RecipeQuery carries the parameters of a filtered provider search.
// Zero values mean "no constraint".
type RecipeQuery struct {
	Query    string
	Diet     string
	Cuisine  string
	Servings int
}

// RecipeProvider is the external recipe catalogue. Implementations never
// return errors: failures are logged and reported as an empty slice, an
// empty suggestion list, or a nil recipe.
type RecipeProvider interface {
	SearchByFilters(ctx context.Context, q RecipeQuery) []recipe.Recipe
	SearchByIngredients(ctx context.Context, ingredients []string) []recipe.Recipe
	GetDetails(ctx context.Context, id int64) *recipe.Recipe
	GetRandom(ctx context.Context, tags []string, servings int) []recipe.Recipe
	AutocompleteIngredients(ctx context.Context, query string) []string
}

// AccountRepository persists user accounts
type AccountRepository interface {
	Create(ctx context.Context, account *user.Account) error
	FindByEmail(ctx context.Context, email string) (*user.Account, error)
	FindByID(ctx context.Context, id string) (*user.Account, error)
}

// SavedRecipeRepository persists bookmarks under users/{uid}/savedRecipes/{recipeId}.
// Save is an upsert; the repository stamps SavedAt.
type SavedRecipeRepository interface {
	Save(ctx context.Context, userID string, saved recipe.SavedRecipe) error
	Delete(ctx context.Context, userID string, recipeID int64) error
	Exists(ctx context.Context, userID string, recipeID int64) (bool, error)
	List(ctx context.Context, userID string) ([]recipe.SavedRecipe, error)
	ListIDs(ctx context.Context, userID string) (map[int64]bool, error)
}

// SessionTokens issues and verifies signed session tokens
type SessionTokens interface {
	Issue(identity user.Identity) (token string, expiresAt time.Time, err error)
	Verify(ctx context.Context, token string) (*user.Identity, error)
	Revoke(ctx context.Context, token string) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
