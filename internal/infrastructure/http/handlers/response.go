// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gourmetguru/api/internal/infrastructure/http/middleware"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	writeJSON(w, logger, status, APIResponse{Success: true, Data: data})
}

// writeError renders err in the error envelope. Errors that are not
// AppErrors become internal errors and are logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := apperrors.Wrap(err, "Internal server error")
	if appErr.StatusCode() >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Error(err),
			zap.String("stack", appErr.StackTrace))
	}
	middleware.WriteError(w, appErr, chimw.GetReqID(r.Context()))
}

// decodeJSON reads a single JSON object from the request body
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewBadRequestError("Request body is empty")
		}
		return apperrors.NewBadRequestError("Invalid JSON payload").WithCause(err)
	}
	return nil
}
