// Package search models the filter state a user composes when looking for
// recipes.
package search

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrUnknownDiet         = errors.New("unknown diet")
	ErrUnknownCuisine      = errors.New("unknown cuisine")
	ErrInvalidServings     = errors.New("servings must not be negative")
	ErrEmptyIngredient     = errors.New("ingredient must not be empty")
	ErrDuplicateIngredient = errors.New("ingredient already added")
)

// Diet restricts results to a dietary regime. The zero value means any.
type Diet string

const (
	DietAny        Diet = ""
	DietVegetarian Diet = "vegetarian"
	DietVegan      Diet = "vegan"
	DietGlutenFree Diet = "gluten free"
	DietKetogenic  Diet = "ketogenic"
	DietPaleo      Diet = "paleo"
)

// Diets lists the selectable diets in display order
var Diets = []Diet{DietAny, DietVegetarian, DietVegan, DietGlutenFree, DietKetogenic, DietPaleo}

// ParseDiet validates s against the known diets
func ParseDiet(s string) (Diet, error) {
	for _, d := range Diets {
		if string(d) == s {
			return d, nil
		}
	}
	return DietAny, fmt.Errorf("%w: %q", ErrUnknownDiet, s)
}

// Cuisine restricts results to a cuisine. The zero value means any.
type Cuisine string

const (
	CuisineAny           Cuisine = ""
	CuisineItalian       Cuisine = "italian"
	CuisineMexican       Cuisine = "mexican"
	CuisineIndian        Cuisine = "indian"
	CuisineChinese       Cuisine = "chinese"
	CuisineJapanese      Cuisine = "japanese"
	CuisineThai          Cuisine = "thai"
	CuisineMediterranean Cuisine = "mediterranean"
)

// Cuisines lists the selectable cuisines in display order
var Cuisines = []Cuisine{
	CuisineAny, CuisineItalian, CuisineMexican, CuisineIndian,
	CuisineChinese, CuisineJapanese, CuisineThai, CuisineMediterranean,
}

// ParseCuisine validates s against the known cuisines
func ParseCuisine(s string) (Cuisine, error) {
	for _, c := range Cuisines {
		if string(c) == s {
			return c, nil
		}
	}
	return CuisineAny, fmt.Errorf("%w: %q", ErrUnknownCuisine, s)
}

// ServingsOptions are the servings counts offered to users; 0 means any
var ServingsOptions = []int{0, 2, 4, 6, 8, 10}

// Filters is the full search state. Ingredients is an ordered set.
type Filters struct {
	Ingredients []string `json:"ingredients"`
	Diet        Diet     `json:"diet"`
	Cuisine     Cuisine  `json:"cuisine"`
	Servings    int      `json:"servings"`
}

// AddIngredient appends name unless it is empty or already present.
// It reports whether the set changed.
func (f *Filters) AddIngredient(name string) bool {
	if name == "" || f.HasIngredient(name) {
		return false
	}
	f.Ingredients = append(f.Ingredients, name)
	return true
}

// RemoveIngredient drops name and reports whether it was present
func (f *Filters) RemoveIngredient(name string) bool {
	kept := f.Ingredients[:0:0]
	removed := false
	for _, i := range f.Ingredients {
		if i == name {
			removed = true
			continue
		}
		kept = append(kept, i)
	}
	f.Ingredients = kept
	return removed
}

// HasIngredient reports whether name is in the set
func (f Filters) HasIngredient(name string) bool {
	for _, i := range f.Ingredients {
		if i == name {
			return true
		}
	}
	return false
}

// IsDefault reports whether no filter is active
func (f Filters) IsDefault() bool {
	return len(f.Ingredients) == 0 && f.Diet == DietAny && f.Cuisine == CuisineAny && f.Servings == 0
}

// Query joins the ingredients the way the provider's free-text query expects
func (f Filters) Query() string {
	return strings.Join(f.Ingredients, ",")
}

// Clone returns a copy that shares no memory with f
func (f Filters) Clone() Filters {
	c := f
	c.Ingredients = append([]string(nil), f.Ingredients...)
	return c
}

// Validate checks enum membership, servings and the set invariant
func (f Filters) Validate() error {
	if _, err := ParseDiet(string(f.Diet)); err != nil {
		return err
	}
	if _, err := ParseCuisine(string(f.Cuisine)); err != nil {
		return err
	}
	if f.Servings < 0 {
		return ErrInvalidServings
	}
	seen := make(map[string]bool, len(f.Ingredients))
	for _, i := range f.Ingredients {
		if i == "" {
			return ErrEmptyIngredient
		}
		if seen[i] {
			return fmt.Errorf("%w: %q", ErrDuplicateIngredient, i)
		}
		seen[i] = true
	}
	return nil
}

// ParseFilters reads filters from URL query values. Ingredients may be
// given comma separated, repeated, or both; blanks and repeats are dropped.
func ParseFilters(values url.Values) (Filters, error) {
	var f Filters

	for _, raw := range values["ingredients"] {
		for _, name := range strings.Split(raw, ",") {
			f.AddIngredient(strings.TrimSpace(name))
		}
	}

	diet, err := ParseDiet(values.Get("diet"))
	if err != nil {
		return Filters{}, err
	}
	f.Diet = diet

	cuisine, err := ParseCuisine(values.Get("cuisine"))
	if err != nil {
		return Filters{}, err
	}
	f.Cuisine = cuisine

	if s := values.Get("servings"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Filters{}, ErrInvalidServings
		}
		f.Servings = n
	}

	return f, nil
}
