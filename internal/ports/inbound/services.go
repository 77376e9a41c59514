// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/search"
	"github.com/gourmetguru/api/internal/domain/user"
)

// ResultSource tells which provider operation produced a result set
type ResultSource string

const (
	SourceRandom      ResultSource = "random"
	SourceSearch      ResultSource = "search"
	SourceIngredients ResultSource = "ingredients"
)

// SearchResult is a classified, grouped result set. Message is set only
// when the set is empty.
type SearchResult struct {
	Source  ResultSource    `json:"source"`
	Recipes []recipe.Recipe `json:"-"`
	Groups  []recipe.Group  `json:"groups"`
	Message string          `json:"message,omitempty"`
}

// Empty reports whether no recipe was found
func (r *SearchResult) Empty() bool {
	return len(r.Recipes) == 0
}

// DiscoveryService finds and classifies recipes
type DiscoveryService interface {
	Search(ctx context.Context, filters search.Filters) *SearchResult
	ByIngredients(ctx context.Context, ingredients []string) *SearchResult
	Random(ctx context.Context, tags []string, servings int) *SearchResult
	Details(ctx context.Context, id int64) (*recipe.Recipe, error)
	Suggest(ctx context.Context, query string) []string
}

// SavedRecipeService manages bookmarks. Failures are logged and reported
// as false or an empty result, never as errors.
type SavedRecipeService interface {
	Save(ctx context.Context, userID string, saved recipe.SavedRecipe) bool
	Unsave(ctx context.Context, userID string, recipeID int64) bool
	IsSaved(ctx context.Context, userID string, recipeID int64) bool
	List(ctx context.Context, userID string) []recipe.SavedRecipe
	SavedIDs(ctx context.Context, userID string) map[int64]bool
}

// Session is an authenticated session handed to the client
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      user.Identity `json:"user"`
}

// AuthService is the identity provider. Errors are *errors.AppError values
// whose message is meant for the end user.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*user.Identity, error)
}
