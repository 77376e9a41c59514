package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	detailsKeyPrefix     = "recipes:details:"
	searchKeyPrefix      = "recipes:search:"
	ingredientsKeyPrefix = "recipes:ingredients:"
)

// RecipeProviderCache caches successful provider lookups. Empty results are
// what the provider returns on failure, so they are never stored. Random
// sets and autocomplete suggestions always go to the provider.
type RecipeProviderCache struct {
	next   outbound.RecipeProvider
	cache  outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

var _ outbound.RecipeProvider = (*RecipeProviderCache)(nil)

// NewRecipeProviderCache wraps next with cache
func NewRecipeProviderCache(next outbound.RecipeProvider, cache outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *RecipeProviderCache {
	return &RecipeProviderCache{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("recipe-cache"),
	}
}

func (c *RecipeProviderCache) SearchByFilters(ctx context.Context, q outbound.RecipeQuery) []recipe.Recipe {
	key := searchKeyPrefix + digest(fmt.Sprintf("q=%s|diet=%s|cuisine=%s|servings=%d", q.Query, q.Diet, q.Cuisine, q.Servings))
	return c.list(ctx, key, func() []recipe.Recipe {
		return c.next.SearchByFilters(ctx, q)
	})
}

func (c *RecipeProviderCache) SearchByIngredients(ctx context.Context, ingredients []string) []recipe.Recipe {
	key := ingredientsKeyPrefix + digest(strings.Join(ingredients, ","))
	return c.list(ctx, key, func() []recipe.Recipe {
		return c.next.SearchByIngredients(ctx, ingredients)
	})
}

func (c *RecipeProviderCache) GetDetails(ctx context.Context, id int64) *recipe.Recipe {
	key := fmt.Sprintf("%s%d", detailsKeyPrefix, id)

	var cached recipe.Recipe
	if c.load(ctx, key, &cached) {
		cached.Normalize()
		return &cached
	}

	r := c.next.GetDetails(ctx, id)
	if r != nil {
		c.store(ctx, key, r)
	}
	return r
}

func (c *RecipeProviderCache) GetRandom(ctx context.Context, tags []string, servings int) []recipe.Recipe {
	return c.next.GetRandom(ctx, tags, servings)
}

func (c *RecipeProviderCache) AutocompleteIngredients(ctx context.Context, query string) []string {
	return c.next.AutocompleteIngredients(ctx, query)
}

func (c *RecipeProviderCache) list(ctx context.Context, key string, fetch func() []recipe.Recipe) []recipe.Recipe {
	var cached []recipe.Recipe
	if c.load(ctx, key, &cached) {
		return recipe.Normalized(cached)
	}

	recipes := fetch()
	if len(recipes) > 0 {
		c.store(ctx, key, recipes)
	}
	return recipes
}

func (c *RecipeProviderCache) load(ctx context.Context, key string, out interface{}) bool {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			c.logger.Warn("Cache read failed, falling back to provider", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.cache.Delete(ctx, key)
		return false
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return true
}

func (c *RecipeProviderCache) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
