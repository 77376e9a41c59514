package presentation

import (
	"context"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
)

// Detail is the full view of one recipe
type Detail struct {
	Card
	DifficultyTitle string       `json:"difficultyTitle"`
	Summary         string       `json:"summary,omitempty"`
	SourceURL       string       `json:"sourceUrl,omitempty"`
	Ingredients     []string     `json:"ingredients,omitempty"`
	Steps           []DetailStep `json:"steps,omitempty"`
}

// DetailStep is one numbered preparation step
type DetailStep struct {
	Number          int      `json:"number"`
	Text            string   `json:"text"`
	Equipment       []string `json:"equipment,omitempty"`
	IngredientsUsed []string `json:"ingredientsUsed,omitempty"`
}

// NewDetail builds the detail view of r. Ingredient lines use the
// provider's original wording and steps come from the first instruction
// block only.
func NewDetail(r recipe.Recipe, saved bool) Detail {
	card := NewCard(r)
	card.Saved = saved

	d := Detail{
		Card:            card,
		DifficultyTitle: card.Difficulty.Title(),
		Summary:         r.Summary,
		SourceURL:       r.SourceURL,
	}

	for _, ing := range r.ExtendedIngredients {
		if ing.Original != "" {
			d.Ingredients = append(d.Ingredients, ing.Original)
		}
	}

	for _, s := range r.FirstSteps() {
		d.Steps = append(d.Steps, DetailStep{
			Number:          s.Number,
			Text:            s.Step,
			Equipment:       itemNames(s.Equipment),
			IngredientsUsed: itemNames(s.Ingredients),
		})
	}
	return d
}

func itemNames(items []recipe.Item) []string {
	var names []string
	for _, it := range items {
		if it.Name != "" {
			names = append(names, it.Name)
		}
	}
	return names
}

// Detail builds the detail view of r with the saved flag for identity
func (p *CardPresenter) Detail(ctx context.Context, identity *user.Identity, r recipe.Recipe) Detail {
	saved := identity != nil && p.saved.IsSaved(ctx, identity.UID, r.ID)
	return NewDetail(r, saved)
}
