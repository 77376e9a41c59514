package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := map[*AppError]int{
		NewInvalidCredentialsError():        http.StatusUnauthorized,
		NewEmailAlreadyExistsError("a@b.c"): http.StatusConflict,
		NewWeakPasswordError(6):             http.StatusBadRequest,
		NewInvalidEmailError():              http.StatusBadRequest,
		NewRecipeNotFoundError(42):          http.StatusNotFound,
		NewQuotaExceededError("recipes"):    http.StatusTooManyRequests,
		NewTokenRevokedError():              http.StatusUnauthorized,
		NewInternalError(""):                http.StatusInternalServerError,
	}

	for err, want := range cases {
		assert.Equal(t, want, err.StatusCode(), string(err.Code))
	}
}

func TestExternalServiceError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewExternalServiceError("spoonacular", cause)

	assert.Equal(t, http.StatusBadGateway, err.StatusCode())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to communicate with spoonacular", err.Details)
}

func TestStackTraceIsCapturedOutsidePackage(t *testing.T) {
	err := NewInternalError("boom")

	require.NotEmpty(t, err.StackTrace)
	assert.Contains(t, err.StackTrace, "testing.tRunner")
	assert.NotContains(t, err.StackTrace, "getStackTrace")
}

func TestWeakPasswordMessage(t *testing.T) {
	err := NewWeakPasswordError(6)
	assert.Equal(t, "Password should be at least 6 characters", err.Message)
}

func TestWrapKeepsAppError(t *testing.T) {
	original := NewInvalidCredentialsError()
	wrapped := fmt.Errorf("sign in: %w", original)

	got := Wrap(wrapped, "ignored")

	require.NotNil(t, got)
	assert.Same(t, original, got)
	assert.True(t, Is(wrapped, CodeInvalidCredentials))
	assert.Equal(t, CodeInvalidCredentials, GetCode(wrapped))
}

func TestWrapPlainError(t *testing.T) {
	cause := stderrors.New("boom")

	got := Wrap(cause, "failed to load")

	require.NotNil(t, got)
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "failed to load", got.Message)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(NewRecipeNotFoundError(7), "req-1")

	assert.Equal(t, CodeRecipeNotFound, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Equal(t, int64(7), resp.Error.Metadata["recipe_id"])
	assert.NotEmpty(t, resp.Error.Timestamp)
}
