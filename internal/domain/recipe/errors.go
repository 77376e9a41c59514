package recipe

import "errors"

var (
	ErrInvalidRecipeID  = errors.New("recipe id must be positive")
	ErrEmptyTitle       = errors.New("recipe title is required")
	ErrNegativeQuantity = errors.New("ready time and servings must not be negative")
	ErrRecipeNotFound   = errors.New("recipe not found")
)
