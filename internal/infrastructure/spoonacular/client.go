// Package spoonacular is the recipe provider adapter. It talks to the
// Spoonacular REST API, rotating API keys per request, and turns every
// failure into a logged, classified empty result.
package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/gourmetguru/api/spoonacular"

// Endpoint names used in logs, spans and metrics
const (
	EndpointComplexSearch      = "complexSearch"
	EndpointFindByIngredients  = "findByIngredients"
	EndpointInformation        = "information"
	EndpointRandom             = "random"
	EndpointIngredientComplete = "ingredientAutocomplete"
)

// Config configures the client
type Config struct {
	BaseURL           string
	ResultLimit       int
	AutocompleteLimit int
	Timeout           time.Duration
}

// Client implements outbound.RecipeProvider against Spoonacular
type Client struct {
	baseURL           string
	resultLimit       int
	autocompleteLimit int
	keys              *KeyRotator
	httpClient        *http.Client
	logger            *zap.Logger
	tracer            trace.Tracer
	requests          metric.Int64Counter
}

var _ outbound.RecipeProvider = (*Client)(nil)

// NewClient creates a provider client that owns keys for rotation
func NewClient(cfg Config, keys *KeyRotator, logger *zap.Logger) *Client {
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = 12
	}
	if cfg.AutocompleteLimit <= 0 {
		cfg.AutocompleteLimit = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	requests, err := otel.Meter(instrumentationName).Int64Counter(
		"recipe_provider.requests",
		metric.WithDescription("Recipe provider requests by endpoint and outcome"),
	)
	if err != nil {
		logger.Warn("Failed to create provider request counter", zap.Error(err))
	}

	return &Client{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		resultLimit:       cfg.ResultLimit,
		autocompleteLimit: cfg.AutocompleteLimit,
		keys:              keys,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:   logger.Named("spoonacular"),
		tracer:   otel.Tracer(instrumentationName),
		requests: requests,
	}
}

// SearchByFilters runs a complex search. Diet and cuisine are sent only
// when set; servings bounds both min and max when positive.
func (c *Client) SearchByFilters(ctx context.Context, q outbound.RecipeQuery) []recipe.Recipe {
	params := url.Values{}
	params.Set("query", q.Query)
	if q.Diet != "" {
		params.Set("diet", q.Diet)
	}
	if q.Cuisine != "" {
		params.Set("cuisine", q.Cuisine)
	}
	params.Set("addRecipeInformation", "true")
	params.Set("addRecipeNutrition", "true")
	params.Set("number", strconv.Itoa(c.resultLimit))
	setServings(params, q.Servings)

	var resp complexSearchResponse
	if err := c.get(ctx, EndpointComplexSearch, "/recipes/complexSearch", params, &resp); err != nil {
		return []recipe.Recipe{}
	}
	return toDomain(resp.Results)
}

// SearchByIngredients ranks recipes by how few extra ingredients they need
func (c *Client) SearchByIngredients(ctx context.Context, ingredients []string) []recipe.Recipe {
	params := url.Values{}
	params.Set("ingredients", strings.Join(ingredients, ","))
	params.Set("number", strconv.Itoa(c.resultLimit))
	params.Set("ranking", "2")
	params.Set("ignorePantry", "true")

	var resp []recipePayload
	if err := c.get(ctx, EndpointFindByIngredients, "/recipes/findByIngredients", params, &resp); err != nil {
		return []recipe.Recipe{}
	}
	return toDomain(resp)
}

// GetDetails fetches full recipe information; nil on any failure
func (c *Client) GetDetails(ctx context.Context, id int64) *recipe.Recipe {
	var resp recipePayload
	path := fmt.Sprintf("/recipes/%d/information", id)
	if err := c.get(ctx, EndpointInformation, path, url.Values{}, &resp); err != nil {
		return nil
	}
	r := resp.toDomain()
	return &r
}

// GetRandom fetches a random recipe set, optionally tagged and bounded by servings
func (c *Client) GetRandom(ctx context.Context, tags []string, servings int) []recipe.Recipe {
	params := url.Values{}
	params.Set("number", strconv.Itoa(c.resultLimit))
	params.Set("tags", strings.Join(tags, ","))
	params.Set("addRecipeInformation", "true")
	params.Set("addRecipeNutrition", "true")
	setServings(params, servings)

	var resp randomResponse
	if err := c.get(ctx, EndpointRandom, "/recipes/random", params, &resp); err != nil {
		return []recipe.Recipe{}
	}
	return toDomain(resp.Recipes)
}

// AutocompleteIngredients returns ingredient name suggestions for query
func (c *Client) AutocompleteIngredients(ctx context.Context, query string) []string {
	if query == "" {
		return nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("number", strconv.Itoa(c.autocompleteLimit))

	var resp []autocompleteItem
	if err := c.get(ctx, EndpointIngredientComplete, "/food/ingredients/autocomplete", params, &resp); err != nil {
		return []string{}
	}

	names := make([]string, 0, len(resp))
	for _, item := range resp {
		names = append(names, item.Name)
	}
	return names
}

func setServings(params url.Values, servings int) {
	if servings > 0 {
		params.Set("minServings", strconv.Itoa(servings))
		params.Set("maxServings", strconv.Itoa(servings))
	}
}

// get performs one GET with the next rotated key and decodes the JSON body
// into out. Failures are classified, logged and counted before returning.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "spoonacular."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("provider.endpoint", endpoint)),
	)
	defer span.End()

	start := time.Now()
	err := c.do(ctx, endpoint, path, params, out)
	if err != nil {
		c.fail(ctx, span, err)
		return err
	}

	c.record(ctx, endpoint, "ok")
	c.logger.Debug("Recipe provider request completed",
		zap.String("endpoint", endpoint),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, path string, params url.Values, out interface{}) error {
	params.Set("apiKey", c.keys.Next())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Classification: ClassError, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Classification: ClassError, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{
			Endpoint:       endpoint,
			StatusCode:     resp.StatusCode,
			Classification: ClassifyStatus(resp.StatusCode),
			Detail:         readErrorDetail(resp.Body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{
			Endpoint:       endpoint,
			StatusCode:     resp.StatusCode,
			Classification: ClassError,
			Err:            fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

func (c *Client) fail(ctx context.Context, span trace.Span, err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = &RequestError{Classification: ClassError, Err: err}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, string(reqErr.Classification))
	c.record(ctx, reqErr.Endpoint, string(reqErr.Classification))

	fields := []zap.Field{
		zap.String("code", string(reqErr.AppError().Code)),
		zap.String("endpoint", reqErr.Endpoint),
		zap.String("classification", string(reqErr.Classification)),
		zap.Int("status", reqErr.StatusCode),
	}
	if reqErr.Err != nil {
		fields = append(fields, zap.Error(reqErr.Err))
	}
	if reqErr.Detail != "" {
		fields = append(fields, zap.String("detail", reqErr.Detail))
	}
	c.logger.Warn(reqErr.Classification.Message(), fields...)
}

func (c *Client) record(ctx context.Context, endpoint, outcome string) {
	if c.requests == nil {
		return
	}
	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	))
}

func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload errorPayload
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}
