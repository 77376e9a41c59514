package spoonacular

import "github.com/gourmetguru/api/internal/domain/recipe"

// Wire formats of the provider's responses. Only the fields the service
// uses are decoded.

type recipePayload struct {
	ID                    int64                `json:"id"`
	Title                 string               `json:"title"`
	Image                 string               `json:"image"`
	ReadyInMinutes        int                  `json:"readyInMinutes"`
	Servings              int                  `json:"servings"`
	HealthScore           float64              `json:"healthScore"`
	PricePerServing       float64              `json:"pricePerServing"`
	Diets                 []string             `json:"diets"`
	Cuisines              []string             `json:"cuisines"`
	Summary               string               `json:"summary"`
	Instructions          string               `json:"instructions"`
	SourceURL             string               `json:"sourceUrl"`
	ExtendedIngredients   []ingredientPayload  `json:"extendedIngredients"`
	AnalyzedInstructions  []instructionPayload `json:"analyzedInstructions"`
	UsedIngredientCount   int                  `json:"usedIngredientCount"`
	MissedIngredientCount int                  `json:"missedIngredientCount"`
}

type ingredientPayload struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
}

type instructionPayload struct {
	Name  string        `json:"name"`
	Steps []stepPayload `json:"steps"`
}

type stepPayload struct {
	Number      int           `json:"number"`
	Step        string        `json:"step"`
	Equipment   []itemPayload `json:"equipment"`
	Ingredients []itemPayload `json:"ingredients"`
}

type itemPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type complexSearchResponse struct {
	Results      []recipePayload `json:"results"`
	TotalResults int             `json:"totalResults"`
}

type randomResponse struct {
	Recipes []recipePayload `json:"recipes"`
}

type autocompleteItem struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type errorPayload struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (p recipePayload) toDomain() recipe.Recipe {
	r := recipe.Recipe{
		ID:                    p.ID,
		Title:                 p.Title,
		Image:                 p.Image,
		ReadyInMinutes:        p.ReadyInMinutes,
		Servings:              p.Servings,
		HealthScore:           p.HealthScore,
		PricePerServing:       p.PricePerServing,
		Diets:                 p.Diets,
		Cuisines:              p.Cuisines,
		Summary:               p.Summary,
		Instructions:          p.Instructions,
		SourceURL:             p.SourceURL,
		UsedIngredientCount:   p.UsedIngredientCount,
		MissedIngredientCount: p.MissedIngredientCount,
	}

	for _, i := range p.ExtendedIngredients {
		r.ExtendedIngredients = append(r.ExtendedIngredients, recipe.Ingredient(i))
	}

	for _, block := range p.AnalyzedInstructions {
		instruction := recipe.Instruction{Name: block.Name}
		for _, s := range block.Steps {
			instruction.Steps = append(instruction.Steps, recipe.Step{
				Number:      s.Number,
				Step:        s.Step,
				Equipment:   toItems(s.Equipment),
				Ingredients: toItems(s.Ingredients),
			})
		}
		r.AnalyzedInstructions = append(r.AnalyzedInstructions, instruction)
	}

	r.Normalize()
	return r
}

func toItems(items []itemPayload) []recipe.Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]recipe.Item, len(items))
	for i, it := range items {
		out[i] = recipe.Item(it)
	}
	return out
}

func toDomain(payloads []recipePayload) []recipe.Recipe {
	recipes := make([]recipe.Recipe, 0, len(payloads))
	for _, p := range payloads {
		recipes = append(recipes, p.toDomain())
	}
	return recipes
}
