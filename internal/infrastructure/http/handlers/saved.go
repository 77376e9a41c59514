package handlers

import (
	"net/http"

	"github.com/gourmetguru/api/internal/application/presentation"
	"github.com/gourmetguru/api/internal/application/saved"
	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/infrastructure/http/middleware"
	"github.com/gourmetguru/api/internal/infrastructure/security"
	"github.com/gourmetguru/api/internal/ports/inbound"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"go.uber.org/zap"
)

// SavedListResponse is the saved recipes view with its cards
type SavedListResponse struct {
	saved.State
	Cards []presentation.Card `json:"cards"`
}

// ToggleRequest is the card a user toggles, in its current saved state
type ToggleRequest struct {
	Recipe recipe.SavedRecipe `json:"recipe"`
	Saved  bool               `json:"saved"`
}

// SavedHandlers manages a user's saved recipes
type SavedHandlers struct {
	saved     inbound.SavedRecipeService
	presenter *presentation.CardPresenter
	validator *security.Validator
	logger    *zap.Logger
}

// NewSavedHandlers creates a new saved recipe handlers instance
func NewSavedHandlers(
	savedService inbound.SavedRecipeService,
	presenter *presentation.CardPresenter,
	validator *security.Validator,
	logger *zap.Logger,
) *SavedHandlers {
	return &SavedHandlers{
		saved:     savedService,
		presenter: presenter,
		validator: validator,
		logger:    logger.Named("saved-handlers"),
	}
}

// List handles GET /me/saved
func (h *SavedHandlers) List(w http.ResponseWriter, r *http.Request) {
	vm := saved.NewViewModel(h.saved)
	vm.SetIdentity(r.Context(), middleware.IdentityFromContext(r.Context()))

	state := vm.State()
	writeData(w, h.logger, http.StatusOK, SavedListResponse{
		State: state,
		Cards: presentation.SavedCards(state.Recipes),
	})
}

// IsSaved handles GET /me/saved/{id}
func (h *SavedHandlers) IsSaved(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	writeData(w, h.logger, http.StatusOK, map[string]bool{
		"saved": h.saved.IsSaved(r.Context(), identity.UID, id),
	})
}

// Save handles PUT /me/saved/{id}
func (h *SavedHandlers) Save(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var body recipe.SavedRecipe
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if body.ID == 0 {
		body.ID = id
	}
	if body.ID != id {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("Recipe ID does not match the path"))
		return
	}
	if err := h.validator.Struct(body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	body.Difficulty = recipe.Classify(body.ReadyInMinutes)

	identity := middleware.IdentityFromContext(r.Context())
	ok := h.saved.Save(r.Context(), identity.UID, body)
	writeJSON(w, h.logger, http.StatusOK, APIResponse{Success: ok})
}

// Unsave handles DELETE /me/saved/{id}
func (h *SavedHandlers) Unsave(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	ok := h.saved.Unsave(r.Context(), identity.UID, id)
	writeJSON(w, h.logger, http.StatusOK, APIResponse{Success: ok})
}

// Toggle handles POST /me/saved/{id}/toggle. Anonymous callers get 401
// together with the login notification.
func (h *SavedHandlers) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// The login notification wins over body validation for anonymous callers
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		outcome := h.presenter.ToggleSave(r.Context(), nil, presentation.Card{ID: id})
		writeJSON(w, h.logger, http.StatusUnauthorized, APIResponse{Success: false, Data: outcome})
		return
	}

	var req ToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Recipe.ID = id
	if err := h.validator.Struct(req.Recipe); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	card := presentation.CardFromSaved(req.Recipe)
	card.Saved = req.Saved

	outcome := h.presenter.ToggleSave(r.Context(), identity, card)
	writeJSON(w, h.logger, http.StatusOK, APIResponse{Success: outcome.Changed, Data: outcome})
}
