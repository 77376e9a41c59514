package spoonacular

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/ports/outbound"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedRequest struct {
	path  string
	query url.Values
}

// ClientTestSuite runs the client against a fake provider
type ClientTestSuite struct {
	suite.Suite
	server   *httptest.Server
	client   *Client
	logs     *observer.ObservedLogs
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func (s *ClientTestSuite) SetupTest() {
	s.requests = nil
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{path: r.URL.Path, query: r.URL.Query()})
		s.mu.Unlock()
		s.handler(w, r)
	}))

	core, logs := observer.New(zapcore.DebugLevel)
	s.logs = logs
	s.client = NewClient(
		Config{BaseURL: s.server.URL, ResultLimit: 12, AutocompleteLimit: 5, Timeout: 2 * time.Second},
		NewKeyRotator([]string{"key-a", "key-b"}),
		zap.New(core),
	)
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientTestSuite) respond(status int, body string) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (s *ClientTestSuite) lastRequest() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.requests)
	return s.requests[len(s.requests)-1]
}

func (s *ClientTestSuite) TestSearchByFilters() {
	s.Run("AllFilters_ShouldSendBoundedQuery", func() {
		// Arrange
		s.respond(http.StatusOK, `{"results":[{"id":1,"title":"Pasta","readyInMinutes":30,"healthScore":41.6,"diets":["vegetarian"]}],"totalResults":1}`)

		// Act
		recipes := s.client.SearchByFilters(context.Background(), outbound.RecipeQuery{
			Query: "tomato,basil", Diet: "vegetarian", Cuisine: "italian", Servings: 4,
		})

		// Assert
		s.Require().Len(recipes, 1)
		s.Equal(recipe.DifficultyMedium, recipes[0].Difficulty)
		s.Equal([]string{"vegetarian"}, recipes[0].Diets)

		req := s.lastRequest()
		s.Equal("/recipes/complexSearch", req.path)
		s.Equal("tomato,basil", req.query.Get("query"))
		s.Equal("vegetarian", req.query.Get("diet"))
		s.Equal("italian", req.query.Get("cuisine"))
		s.Equal("4", req.query.Get("minServings"))
		s.Equal("4", req.query.Get("maxServings"))
		s.Equal("true", req.query.Get("addRecipeInformation"))
		s.Equal("true", req.query.Get("addRecipeNutrition"))
		s.Equal("12", req.query.Get("number"))
	})

	s.Run("NoServings_ShouldOmitBounds", func() {
		s.respond(http.StatusOK, `{"results":[]}`)

		recipes := s.client.SearchByFilters(context.Background(), outbound.RecipeQuery{Query: "egg"})

		s.Empty(recipes)
		req := s.lastRequest()
		s.False(req.query.Has("minServings"))
		s.False(req.query.Has("maxServings"))
		s.False(req.query.Has("diet"))
		s.False(req.query.Has("cuisine"))
	})
}

func (s *ClientTestSuite) TestSearchByIngredients() {
	s.respond(http.StatusOK, `[{"id":7,"title":"Omelette","usedIngredientCount":2,"missedIngredientCount":1}]`)

	recipes := s.client.SearchByIngredients(context.Background(), []string{"egg", "cheese"})

	s.Require().Len(recipes, 1)
	s.Equal(2, recipes[0].UsedIngredientCount)
	s.Equal(recipe.DifficultyEasy, recipes[0].Difficulty)
	s.Nil(recipes[0].Diets)

	req := s.lastRequest()
	s.Equal("/recipes/findByIngredients", req.path)
	s.Equal("egg,cheese", req.query.Get("ingredients"))
	s.Equal("2", req.query.Get("ranking"))
	s.Equal("true", req.query.Get("ignorePantry"))
}

func (s *ClientTestSuite) TestGetDetails() {
	s.Run("Found_ShouldMapInstructions", func() {
		s.respond(http.StatusOK, `{
			"id": 42, "title": "Curry", "readyInMinutes": 50, "servings": 4,
			"extendedIngredients": [{"id": 1, "name": "rice", "original": "2 cups rice", "amount": 2, "unit": "cups"}],
			"analyzedInstructions": [{"name": "", "steps": [
				{"number": 1, "step": "Cook rice", "equipment": [{"id": 9, "name": "pot"}], "ingredients": []}
			]}]
		}`)

		r := s.client.GetDetails(context.Background(), 42)

		s.Require().NotNil(r)
		s.Equal("/recipes/42/information", s.lastRequest().path)
		s.Equal(recipe.DifficultyHard, r.Difficulty)
		s.Equal("2 cups rice", r.ExtendedIngredients[0].Original)
		steps := r.FirstSteps()
		s.Require().Len(steps, 1)
		s.Equal("pot", steps[0].Equipment[0].Name)
		s.Nil(steps[0].Ingredients)
	})

	s.Run("NotFound_ShouldReturnNil", func() {
		s.respond(http.StatusNotFound, `{"status":"failure","code":404,"message":"A recipe with the id 1 does not exist."}`)

		s.Nil(s.client.GetDetails(context.Background(), 1))
	})
}

func (s *ClientTestSuite) TestGetRandom() {
	s.respond(http.StatusOK, `{"recipes":[{"id":1,"title":"A"},{"id":2,"title":"B","readyInMinutes":90}]}`)

	recipes := s.client.GetRandom(context.Background(), []string{"dessert", "vegan"}, 2)

	s.Require().Len(recipes, 2)
	s.Equal(recipe.DifficultyHard, recipes[1].Difficulty)
	req := s.lastRequest()
	s.Equal("/recipes/random", req.path)
	s.Equal("dessert,vegan", req.query.Get("tags"))
	s.Equal("2", req.query.Get("minServings"))
}

func (s *ClientTestSuite) TestGetRandomWithoutRecipesField() {
	s.respond(http.StatusOK, `{}`)

	recipes := s.client.GetRandom(context.Background(), nil, 0)

	s.NotNil(recipes)
	s.Empty(recipes)
}

func (s *ClientTestSuite) TestAutocomplete() {
	s.Run("Query_ShouldReturnNames", func() {
		s.respond(http.StatusOK, `[{"name":"apple","image":"apple.jpg"},{"name":"applesauce"}]`)

		names := s.client.AutocompleteIngredients(context.Background(), "app")

		s.Equal([]string{"apple", "applesauce"}, names)
		req := s.lastRequest()
		s.Equal("/food/ingredients/autocomplete", req.path)
		s.Equal("5", req.query.Get("number"))
	})

	s.Run("EmptyQuery_ShouldNotCallProvider", func() {
		s.mu.Lock()
		before := len(s.requests)
		s.mu.Unlock()

		s.Nil(s.client.AutocompleteIngredients(context.Background(), ""))

		s.mu.Lock()
		defer s.mu.Unlock()
		s.Len(s.requests, before)
	})
}

func (s *ClientTestSuite) TestFailureClassification() {
	cases := []struct {
		name   string
		status int
		want   Classification
	}{
		{"Unauthorized", http.StatusUnauthorized, ClassUnauthorized},
		{"QuotaExceeded", http.StatusPaymentRequired, ClassQuotaExceeded},
		{"ServerError", http.StatusInternalServerError, ClassError},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			// Arrange
			s.respond(tc.status, `{"status":"failure","message":"nope"}`)
			s.logs.TakeAll()

			// Act
			recipes := s.client.SearchByFilters(context.Background(), outbound.RecipeQuery{Query: "x"})

			// Assert
			s.NotNil(recipes)
			s.Empty(recipes)
			entries := s.logs.FilterMessage(tc.want.Message()).All()
			s.Require().Len(entries, 1)
			s.Equal(string(tc.want), entries[0].ContextMap()["classification"])
			s.Equal(int64(tc.status), entries[0].ContextMap()["status"])
		})
	}
}

func (s *ClientTestSuite) TestMalformedBodyIsAnError() {
	s.respond(http.StatusOK, `{"results": [`)

	s.Empty(s.client.SearchByFilters(context.Background(), outbound.RecipeQuery{}))
	s.Equal(1, s.logs.FilterField(zap.String("classification", string(ClassError))).Len())
}

func (s *ClientTestSuite) TestKeysRotateAcrossCalls() {
	s.respond(http.StatusOK, `[]`)

	for i := 0; i < 4; i++ {
		s.client.SearchByIngredients(context.Background(), []string{"egg"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, r := range s.requests {
		keys = append(keys, r.query.Get("apiKey"))
	}
	s.Equal([]string{"key-a", "key-b", "key-a", "key-b"}, keys)
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestTransportFailureIsClassifiedAsError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, NewKeyRotator(nil), zap.New(core))

	assert.Nil(t, client.GetDetails(context.Background(), 5))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, string(ClassError), logs.All()[0].ContextMap()["classification"])
	assert.Equal(t, string(apperrors.CodeExternalServiceError), logs.All()[0].ContextMap()["code"])
}

func TestRequestErrorAppError(t *testing.T) {
	quota := &RequestError{Endpoint: "search", StatusCode: http.StatusPaymentRequired, Classification: ClassQuotaExceeded}
	got := quota.AppError()
	assert.Equal(t, apperrors.CodeQuotaExceeded, got.Code)
	assert.Equal(t, http.StatusTooManyRequests, got.StatusCode())
	assert.ErrorIs(t, got, quota)

	failed := &RequestError{Endpoint: "details", StatusCode: http.StatusInternalServerError, Classification: ClassError}
	got = failed.AppError()
	assert.Equal(t, apperrors.CodeExternalServiceError, got.Code)
	assert.Equal(t, http.StatusBadGateway, got.StatusCode())
	assert.Equal(t, "details", got.Metadata["endpoint"])
}
