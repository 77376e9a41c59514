package security

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/gourmetguru/api/pkg/errors"
)

// Validator validates request payloads with struct tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the ingredient rule registered and
// JSON field names in error reports
func NewValidator() *Validator {
	validate := validator.New()
	_ = validate.RegisterValidation("ingredient", validateIngredient)
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: validate}
}

// validateIngredient rejects markup and script fragments in ingredient names
func validateIngredient(fl validator.FieldLevel) bool {
	ingredient := strings.TrimSpace(fl.Field().String())
	if ingredient == "" || len(ingredient) > 100 {
		return false
	}

	lower := strings.ToLower(ingredient)
	for _, danger := range []string{"<", ">", "script", "javascript:"} {
		if strings.Contains(lower, danger) {
			return false
		}
	}
	return true
}

// Struct validates s and converts failures to a validation AppError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewBadRequestError("Invalid request payload")
	}

	fields := make([]apperrors.ValidationError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, apperrors.ValidationError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: message(e),
		})
	}
	return apperrors.NewValidationErrors(fields)
}

// Var validates a single value against tag
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "ingredient":
		return "Invalid ingredient name"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
