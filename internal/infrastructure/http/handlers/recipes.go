package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gourmetguru/api/internal/application/presentation"
	"github.com/gourmetguru/api/internal/domain/search"
	"github.com/gourmetguru/api/internal/infrastructure/http/middleware"
	"github.com/gourmetguru/api/internal/ports/inbound"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"go.uber.org/zap"
)

// SearchResponse is a grouped result set as sent to clients
type SearchResponse struct {
	Source  inbound.ResultSource     `json:"source"`
	Message string                   `json:"message,omitempty"`
	Groups  []presentation.CardGroup `json:"groups"`
}

// RecipeHandlers serves recipe discovery
type RecipeHandlers struct {
	discovery inbound.DiscoveryService
	presenter *presentation.CardPresenter
	logger    *zap.Logger
}

// NewRecipeHandlers creates a new recipe handlers instance
func NewRecipeHandlers(
	discovery inbound.DiscoveryService,
	presenter *presentation.CardPresenter,
	logger *zap.Logger,
) *RecipeHandlers {
	return &RecipeHandlers{
		discovery: discovery,
		presenter: presenter,
		logger:    logger.Named("recipe-handlers"),
	}
}

// Search handles GET /recipes/search
func (h *RecipeHandlers) Search(w http.ResponseWriter, r *http.Request) {
	filters, err := search.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, filterError(err))
		return
	}

	result := h.discovery.Search(r.Context(), filters)
	writeData(w, h.logger, http.StatusOK, h.present(r, result))
}

// ByIngredients handles GET /recipes/by-ingredients
func (h *RecipeHandlers) ByIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients := splitList(r.URL.Query()["ingredients"])
	if len(ingredients) == 0 {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("At least one ingredient is required"))
		return
	}

	result := h.discovery.ByIngredients(r.Context(), ingredients)
	writeData(w, h.logger, http.StatusOK, h.present(r, result))
}

// Random handles GET /recipes/random
func (h *RecipeHandlers) Random(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	servings := 0
	if s := query.Get("servings"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, r, h.logger, filterError(search.ErrInvalidServings))
			return
		}
		servings = n
	}

	result := h.discovery.Random(r.Context(), splitList(query["tags"]), servings)
	writeData(w, h.logger, http.StatusOK, h.present(r, result))
}

// Detail handles GET /recipes/{id}
func (h *RecipeHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	found, err := h.discovery.Details(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	writeData(w, h.logger, http.StatusOK, h.presenter.Detail(r.Context(), identity, *found))
}

// Autocomplete handles GET /ingredients/autocomplete
func (h *RecipeHandlers) Autocomplete(w http.ResponseWriter, r *http.Request) {
	suggestions := h.discovery.Suggest(r.Context(), r.URL.Query().Get("query"))
	if suggestions == nil {
		suggestions = []string{}
	}
	writeData(w, h.logger, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (h *RecipeHandlers) present(r *http.Request, result *inbound.SearchResult) SearchResponse {
	return presentResult(r, h.presenter, result)
}

func presentResult(r *http.Request, presenter *presentation.CardPresenter, result *inbound.SearchResult) SearchResponse {
	identity := middleware.IdentityFromContext(r.Context())
	return SearchResponse{
		Source:  result.Source,
		Message: result.Message,
		Groups:  presenter.Groups(r.Context(), identity, result.Groups),
	}
}

// recipeID parses the {id} route parameter
func recipeID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("Invalid recipe ID")
	}
	return id, nil
}

// splitList accepts repeated and comma separated values
func splitList(values []string) []string {
	var out []string
	for _, raw := range values {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func filterError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, search.ErrUnknownDiet):
		return apperrors.NewBadRequestError("Unknown diet")
	case errors.Is(err, search.ErrUnknownCuisine):
		return apperrors.NewBadRequestError("Unknown cuisine")
	case errors.Is(err, search.ErrInvalidServings):
		return apperrors.NewBadRequestError("Servings must be a non-negative number")
	default:
		return apperrors.NewBadRequestError(err.Error())
	}
}
