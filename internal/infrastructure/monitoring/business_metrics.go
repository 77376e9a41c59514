package monitoring

import (
	"context"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider operations as they appear in the operation label
const (
	OpSearch       = "search"
	OpIngredients  = "ingredients"
	OpDetails      = "details"
	OpRandom       = "random"
	OpAutocomplete = "autocomplete"
)

// BusinessMetrics tracks recipe provider traffic and bookmark activity
type BusinessMetrics struct {
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	providerResults  *prometheus.HistogramVec
	bookmarks        *prometheus.CounterVec
}

// NewBusinessMetrics registers the business collectors with reg. keyCount
// backs a gauge of configured provider API keys.
func NewBusinessMetrics(reg *prometheus.Registry, keyCount func() int) *BusinessMetrics {
	factory := promauto.With(reg)

	if keyCount != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "gourmet_provider_api_keys",
			Help: "Number of recipe provider API keys in rotation",
		}, func() float64 { return float64(keyCount()) })
	}

	return &BusinessMetrics{
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gourmet_provider_requests_total",
				Help: "Recipe provider calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		providerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gourmet_provider_request_duration_seconds",
				Help:    "Recipe provider call latency",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		providerResults: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gourmet_provider_results",
				Help:    "Number of items returned per provider call",
				Buckets: []float64{0, 1, 5, 10, 20, 50},
			},
			[]string{"operation"},
		),
		bookmarks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gourmet_bookmarks_total",
				Help: "Bookmark changes by action and outcome",
			},
			[]string{"action", "outcome"},
		),
	}
}

func (m *BusinessMetrics) observeProvider(op string, start time.Time, n int) {
	outcome := "results"
	if n == 0 {
		outcome = "empty"
	}
	m.providerRequests.WithLabelValues(op, outcome).Inc()
	m.providerDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.providerResults.WithLabelValues(op).Observe(float64(n))
}

func (m *BusinessMetrics) observeBookmark(action string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.bookmarks.WithLabelValues(action, outcome).Inc()
}

// InstrumentProvider wraps p so every call is counted and timed
func (m *BusinessMetrics) InstrumentProvider(p outbound.RecipeProvider) outbound.RecipeProvider {
	return &instrumentedProvider{next: p, metrics: m}
}

// InstrumentSaved wraps s so save and unsave outcomes are counted
func (m *BusinessMetrics) InstrumentSaved(s inbound.SavedRecipeService) inbound.SavedRecipeService {
	return &instrumentedSaved{SavedRecipeService: s, metrics: m}
}

type instrumentedProvider struct {
	next    outbound.RecipeProvider
	metrics *BusinessMetrics
}

func (p *instrumentedProvider) SearchByFilters(ctx context.Context, q outbound.RecipeQuery) []recipe.Recipe {
	start := time.Now()
	recipes := p.next.SearchByFilters(ctx, q)
	p.metrics.observeProvider(OpSearch, start, len(recipes))
	return recipes
}

func (p *instrumentedProvider) SearchByIngredients(ctx context.Context, ingredients []string) []recipe.Recipe {
	start := time.Now()
	recipes := p.next.SearchByIngredients(ctx, ingredients)
	p.metrics.observeProvider(OpIngredients, start, len(recipes))
	return recipes
}

func (p *instrumentedProvider) GetDetails(ctx context.Context, id int64) *recipe.Recipe {
	start := time.Now()
	r := p.next.GetDetails(ctx, id)
	n := 0
	if r != nil {
		n = 1
	}
	p.metrics.observeProvider(OpDetails, start, n)
	return r
}

func (p *instrumentedProvider) GetRandom(ctx context.Context, tags []string, servings int) []recipe.Recipe {
	start := time.Now()
	recipes := p.next.GetRandom(ctx, tags, servings)
	p.metrics.observeProvider(OpRandom, start, len(recipes))
	return recipes
}

func (p *instrumentedProvider) AutocompleteIngredients(ctx context.Context, query string) []string {
	start := time.Now()
	suggestions := p.next.AutocompleteIngredients(ctx, query)
	p.metrics.observeProvider(OpAutocomplete, start, len(suggestions))
	return suggestions
}

type instrumentedSaved struct {
	inbound.SavedRecipeService
	metrics *BusinessMetrics
}

func (s *instrumentedSaved) Save(ctx context.Context, userID string, saved recipe.SavedRecipe) bool {
	ok := s.SavedRecipeService.Save(ctx, userID, saved)
	s.metrics.observeBookmark("save", ok)
	return ok
}

func (s *instrumentedSaved) Unsave(ctx context.Context, userID string, recipeID int64) bool {
	ok := s.SavedRecipeService.Unsave(ctx, userID, recipeID)
	s.metrics.observeBookmark("unsave", ok)
	return ok
}
