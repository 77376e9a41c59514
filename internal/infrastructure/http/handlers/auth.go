package handlers

import (
	"net/http"

	"github.com/gourmetguru/api/internal/infrastructure/http/middleware"
	"github.com/gourmetguru/api/internal/infrastructure/security"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"go.uber.org/zap"
)

// CredentialsRequest is the body of sign-up and sign-in
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// AuthHandlers handles account sessions
type AuthHandlers struct {
	auth      inbound.AuthService
	validator *security.Validator
	logger    *zap.Logger
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(auth inbound.AuthService, validator *security.Validator, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		auth:      auth,
		validator: validator,
		logger:    logger.Named("auth-handlers"),
	}
}

// SignUp handles POST /auth/signup
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	session, err := h.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, session)
}

// SignIn handles POST /auth/signin
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	session, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, session)
}

// SignOut handles POST /auth/signout
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.logger, http.StatusOK, middleware.IdentityFromContext(r.Context()))
}

func (h *AuthHandlers) credentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, r, h.logger, err)
		return req, false
	}
	return req, true
}
