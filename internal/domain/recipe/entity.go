// Package recipe contains the recipe domain model: recipes as returned by
// the recipe provider, the subset a user bookmarks, and the rules that
// classify and group them.
package recipe

import "time"

// Recipe is a recipe as presented to users. Identity and content are owned
// by the upstream provider; Difficulty is derived locally.
type Recipe struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Image           string   `json:"image,omitempty"`
	ReadyInMinutes  int      `json:"readyInMinutes"`
	Servings        int      `json:"servings"`
	HealthScore     float64  `json:"healthScore"`
	PricePerServing float64  `json:"pricePerServing,omitempty"`
	Diets           []string `json:"diets"`
	Cuisines        []string `json:"cuisines,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Instructions    string   `json:"instructions,omitempty"`
	SourceURL       string   `json:"sourceUrl,omitempty"`

	ExtendedIngredients  []Ingredient  `json:"extendedIngredients,omitempty"`
	AnalyzedInstructions []Instruction `json:"analyzedInstructions,omitempty"`

	// Populated by ingredient-ranked searches only.
	UsedIngredientCount   int `json:"usedIngredientCount,omitempty"`
	MissedIngredientCount int `json:"missedIngredientCount,omitempty"`

	Difficulty Difficulty `json:"difficulty"`
}

// Ingredient is one line of a recipe's ingredient list
type Ingredient struct {
	ID       int64   `json:"id,omitempty"`
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
}

// Instruction is a named block of ordered steps
type Instruction struct {
	Name  string `json:"name,omitempty"`
	Steps []Step `json:"steps"`
}

// Step is a single preparation step
type Step struct {
	Number      int    `json:"number"`
	Step        string `json:"step"`
	Equipment   []Item `json:"equipment,omitempty"`
	Ingredients []Item `json:"ingredients,omitempty"`
}

// Item names a piece of equipment or an ingredient referenced by a step
type Item struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Normalize recomputes derived fields. Difficulty is never taken from
// upstream data.
func (r *Recipe) Normalize() {
	r.Difficulty = Classify(r.ReadyInMinutes)
}

// Normalized returns recipes with derived fields recomputed
func Normalized(recipes []Recipe) []Recipe {
	for i := range recipes {
		recipes[i].Normalize()
	}
	return recipes
}

// FirstSteps returns the steps of the first analyzed instruction block
func (r *Recipe) FirstSteps() []Step {
	if len(r.AnalyzedInstructions) == 0 {
		return nil
	}
	return r.AnalyzedInstructions[0].Steps
}

// Saved returns the subset of r that is persisted when a user bookmarks it
func (r *Recipe) Saved() SavedRecipe {
	return SavedRecipe{
		ID:             r.ID,
		Title:          r.Title,
		Image:          r.Image,
		ReadyInMinutes: r.ReadyInMinutes,
		Servings:       r.Servings,
		HealthScore:    r.HealthScore,
		Difficulty:     Classify(r.ReadyInMinutes),
		Diets:          r.Diets,
	}
}

// SavedRecipe is a user's bookmark of a recipe. SavedAt is assigned by the
// store at save time.
type SavedRecipe struct {
	ID             int64      `json:"id" validate:"required,gt=0"`
	Title          string     `json:"title" validate:"required,max=500"`
	Image          string     `json:"image,omitempty" validate:"omitempty,max=2048"`
	ReadyInMinutes int        `json:"readyInMinutes" validate:"gte=0"`
	Servings       int        `json:"servings" validate:"gte=0"`
	HealthScore    float64    `json:"healthScore" validate:"gte=0,lte=100"`
	Difficulty     Difficulty `json:"difficulty"`
	Diets          []string   `json:"diets"`
	SavedAt        time.Time  `json:"savedAt"`
}

// Validate checks the fields a store relies on
func (s SavedRecipe) Validate() error {
	if s.ID <= 0 {
		return ErrInvalidRecipeID
	}
	if s.Title == "" {
		return ErrEmptyTitle
	}
	if s.ReadyInMinutes < 0 || s.Servings < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// Recipe expands a saved bookmark back into a Recipe for presentation
func (s SavedRecipe) Recipe() Recipe {
	r := Recipe{
		ID:             s.ID,
		Title:          s.Title,
		Image:          s.Image,
		ReadyInMinutes: s.ReadyInMinutes,
		Servings:       s.Servings,
		HealthScore:    s.HealthScore,
		Diets:          s.Diets,
	}
	r.Normalize()
	return r
}
