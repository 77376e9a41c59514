package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/search"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeProvider provides a mock implementation of RecipeProvider
type MockRecipeProvider struct {
	mock.Mock
}

var _ outbound.RecipeProvider = (*MockRecipeProvider)(nil)

func (m *MockRecipeProvider) SearchByFilters(ctx context.Context, q outbound.RecipeQuery) []recipe.Recipe {
	args := m.Called(ctx, q)
	return recipesArg(args, 0)
}

func (m *MockRecipeProvider) SearchByIngredients(ctx context.Context, ingredients []string) []recipe.Recipe {
	args := m.Called(ctx, ingredients)
	return recipesArg(args, 0)
}

func (m *MockRecipeProvider) GetDetails(ctx context.Context, id int64) *recipe.Recipe {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*recipe.Recipe); ok {
		return r
	}
	return nil
}

func (m *MockRecipeProvider) GetRandom(ctx context.Context, tags []string, servings int) []recipe.Recipe {
	args := m.Called(ctx, tags, servings)
	return recipesArg(args, 0)
}

func (m *MockRecipeProvider) AutocompleteIngredients(ctx context.Context, query string) []string {
	args := m.Called(ctx, query)
	if s, ok := args.Get(0).([]string); ok {
		return s
	}
	return []string{}
}

func recipesArg(args mock.Arguments, i int) []recipe.Recipe {
	if r, ok := args.Get(i).([]recipe.Recipe); ok {
		return r
	}
	return []recipe.Recipe{}
}

// MockSavedRecipeRepository provides a mock implementation of SavedRecipeRepository
type MockSavedRecipeRepository struct {
	mock.Mock
}

var _ outbound.SavedRecipeRepository = (*MockSavedRecipeRepository)(nil)

func (m *MockSavedRecipeRepository) Save(ctx context.Context, userID string, saved recipe.SavedRecipe) error {
	args := m.Called(ctx, userID, saved)
	return args.Error(0)
}

func (m *MockSavedRecipeRepository) Delete(ctx context.Context, userID string, recipeID int64) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

func (m *MockSavedRecipeRepository) Exists(ctx context.Context, userID string, recipeID int64) (bool, error) {
	args := m.Called(ctx, userID, recipeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSavedRecipeRepository) List(ctx context.Context, userID string) ([]recipe.SavedRecipe, error) {
	args := m.Called(ctx, userID)
	saved, _ := args.Get(0).([]recipe.SavedRecipe)
	return saved, args.Error(1)
}

func (m *MockSavedRecipeRepository) ListIDs(ctx context.Context, userID string) (map[int64]bool, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).(map[int64]bool)
	return ids, args.Error(1)
}

// MockAccountRepository provides a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

var _ outbound.AccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) Create(ctx context.Context, account *user.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*user.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*user.Account)
	return account, args.Error(1)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id string) (*user.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*user.Account)
	return account, args.Error(1)
}

// MockSavedRecipeService provides a mock implementation of SavedRecipeService
type MockSavedRecipeService struct {
	mock.Mock
}

var _ inbound.SavedRecipeService = (*MockSavedRecipeService)(nil)

func (m *MockSavedRecipeService) Save(ctx context.Context, userID string, saved recipe.SavedRecipe) bool {
	return m.Called(ctx, userID, saved).Bool(0)
}

func (m *MockSavedRecipeService) Unsave(ctx context.Context, userID string, recipeID int64) bool {
	return m.Called(ctx, userID, recipeID).Bool(0)
}

func (m *MockSavedRecipeService) IsSaved(ctx context.Context, userID string, recipeID int64) bool {
	return m.Called(ctx, userID, recipeID).Bool(0)
}

func (m *MockSavedRecipeService) List(ctx context.Context, userID string) []recipe.SavedRecipe {
	saved, _ := m.Called(ctx, userID).Get(0).([]recipe.SavedRecipe)
	return saved
}

func (m *MockSavedRecipeService) SavedIDs(ctx context.Context, userID string) map[int64]bool {
	ids, _ := m.Called(ctx, userID).Get(0).(map[int64]bool)
	return ids
}

// InMemoryCache is a map-backed CacheRepository that counts operations.
// TTLs are recorded but never enforced.
type InMemoryCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	Sets   int
	Gets   int
	Errors map[string]error
}

var _ outbound.CacheRepository = (*InMemoryCache)(nil)

// NewInMemoryCache creates an empty cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data:   make(map[string][]byte),
		ttls:   make(map[string]time.Duration),
		Errors: make(map[string]error),
	}
}

func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if err := c.Errors["get"]; err != nil {
		return nil, err
	}
	v, ok := c.data[key]
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	return v, nil
}

func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	if err := c.Errors["set"]; err != nil {
		return err
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	delete(c.ttls, key)
	return nil
}

func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

// Keys returns the stored keys
func (c *InMemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// TTL returns the ttl a key was stored with
func (c *InMemoryCache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

// Put stores raw bytes under key without counting a Set
func (c *InMemoryCache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// MockSessionTokens provides a mock implementation of SessionTokens
type MockSessionTokens struct {
	mock.Mock
}

var _ outbound.SessionTokens = (*MockSessionTokens)(nil)

func (m *MockSessionTokens) Issue(identity user.Identity) (string, time.Time, error) {
	args := m.Called(identity)
	expiresAt, _ := args.Get(1).(time.Time)
	return args.String(0), expiresAt, args.Error(2)
}

func (m *MockSessionTokens) Verify(ctx context.Context, token string) (*user.Identity, error) {
	args := m.Called(ctx, token)
	identity, _ := args.Get(0).(*user.Identity)
	return identity, args.Error(1)
}

func (m *MockSessionTokens) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// MockAuthService provides a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

var _ inbound.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) SignUp(ctx context.Context, email, password string) (*inbound.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*inbound.Session)
	return session, args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*inbound.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*inbound.Session)
	return session, args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*user.Identity, error) {
	args := m.Called(ctx, token)
	identity, _ := args.Get(0).(*user.Identity)
	return identity, args.Error(1)
}

// MockDiscoveryService provides a mock implementation of DiscoveryService
type MockDiscoveryService struct {
	mock.Mock
}

var _ inbound.DiscoveryService = (*MockDiscoveryService)(nil)

func (m *MockDiscoveryService) Search(ctx context.Context, filters search.Filters) *inbound.SearchResult {
	result, _ := m.Called(ctx, filters).Get(0).(*inbound.SearchResult)
	return result
}

func (m *MockDiscoveryService) ByIngredients(ctx context.Context, ingredients []string) *inbound.SearchResult {
	result, _ := m.Called(ctx, ingredients).Get(0).(*inbound.SearchResult)
	return result
}

func (m *MockDiscoveryService) Random(ctx context.Context, tags []string, servings int) *inbound.SearchResult {
	result, _ := m.Called(ctx, tags, servings).Get(0).(*inbound.SearchResult)
	return result
}

func (m *MockDiscoveryService) Details(ctx context.Context, id int64) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*recipe.Recipe)
	return r, args.Error(1)
}

func (m *MockDiscoveryService) Suggest(ctx context.Context, query string) []string {
	suggestions, _ := m.Called(ctx, query).Get(0).([]string)
	return suggestions
}
