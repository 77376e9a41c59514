package spoonacular

import (
	"fmt"
	"net/http"

	apperrors "github.com/gourmetguru/api/pkg/errors"
)

// Classification buckets provider failures
type Classification string

const (
	ClassUnauthorized  Classification = "unauthorized"
	ClassQuotaExceeded Classification = "quota_exceeded"
	ClassError         Classification = "error"
)

// ClassifyStatus maps an HTTP status from the provider to a Classification
func ClassifyStatus(status int) Classification {
	switch status {
	case http.StatusUnauthorized:
		return ClassUnauthorized
	case http.StatusPaymentRequired:
		return ClassQuotaExceeded
	default:
		return ClassError
	}
}

// Message is the one-line description logged for a classification
func (c Classification) Message() string {
	switch c {
	case ClassUnauthorized:
		return "API key is invalid or expired. Please check your Spoonacular API key."
	case ClassQuotaExceeded:
		return "API quota exceeded. Please check your Spoonacular API usage."
	default:
		return "Recipe provider request failed"
	}
}

// RequestError describes a failed provider call. StatusCode is 0 when no
// response was received.
type RequestError struct {
	Endpoint       string
	StatusCode     int
	Classification Classification
	Detail         string
	Err            error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Classification.Message(), e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s (status %d: %s)", e.Endpoint, e.Classification.Message(), e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Classification.Message(), e.StatusCode)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// AppError converts the failure into the application error taxonomy
func (e *RequestError) AppError() *apperrors.AppError {
	if e.Classification == ClassQuotaExceeded {
		return apperrors.NewQuotaExceededError("spoonacular").WithCause(e)
	}
	return apperrors.NewExternalServiceError("spoonacular", e).
		WithMetadata("endpoint", e.Endpoint).
		WithMetadata("status", e.StatusCode)
}
