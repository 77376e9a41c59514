package testutils

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RecipeAssertions provides recipe-specific assertion methods
type RecipeAssertions struct {
	t *testing.T
}

// NewRecipeAssertions creates a new recipe assertions helper
func NewRecipeAssertions(t *testing.T) *RecipeAssertions {
	return &RecipeAssertions{t: t}
}

// Partitioned asserts that groups hold every recipe exactly once, each
// under the tier its cooking time classifies to, in easy, medium, hard order
func (ra *RecipeAssertions) Partitioned(recipes []recipe.Recipe, groups []recipe.Group) {
	ra.t.Helper()

	seen := make(map[int64]int)
	lastTier := -1
	for _, g := range groups {
		tier := tierIndex(g.Difficulty)
		require.GreaterOrEqual(ra.t, tier, 0, "unknown difficulty %q", g.Difficulty)
		assert.Greater(ra.t, tier, lastTier, "groups out of order at %q", g.Difficulty)
		lastTier = tier
		assert.NotEmpty(ra.t, g.Recipes, "empty group %q", g.Difficulty)

		for _, r := range g.Recipes {
			seen[r.ID]++
			assert.Equal(ra.t, recipe.Classify(r.ReadyInMinutes), g.Difficulty,
				"recipe %d with %d minutes grouped under %q", r.ID, r.ReadyInMinutes, g.Difficulty)
		}
	}

	assert.Len(ra.t, seen, len(recipes))
	for _, r := range recipes {
		assert.Equal(ra.t, 1, seen[r.ID], "recipe %d should appear exactly once", r.ID)
	}
}

func tierIndex(d recipe.Difficulty) int {
	for i, candidate := range recipe.Difficulties {
		if candidate == d {
			return i
		}
	}
	return -1
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	err := json.NewDecoder(resp.Body).Decode(target)
	require.NoError(ha.t, err, "Response should be valid JSON")
}

// ErrorResponse asserts that the response carries an error envelope with
// the given code and, when non-empty, a message containing expectedMessage
func (ha *HTTPAssertions) ErrorResponse(resp *http.Response, expectedCode, expectedMessage string) {
	var body struct {
		Success bool `json:"success"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	ha.JSONResponse(resp, &body)

	assert.False(ha.t, body.Success)
	require.NotNil(ha.t, body.Error, "Response should contain error field")
	assert.Equal(ha.t, expectedCode, body.Error.Code)
	if expectedMessage != "" {
		assert.Contains(ha.t, body.Error.Message, expectedMessage)
	}
}

// HasHeader asserts that a header exists
func (ha *HTTPAssertions) HasHeader(resp *http.Response, headerName string) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.NotEmpty(ha.t, resp.Header.Get(headerName), "Response should have header %s", headerName)
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(resp *http.Response) {
	for _, header := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
		"Content-Security-Policy",
	} {
		ha.HasHeader(resp, header)
	}
}
