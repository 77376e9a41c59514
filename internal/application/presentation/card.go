// Package presentation turns recipes into the cards and detail views shown
// to users, and owns the save toggle on a card.
package presentation

import (
	"context"
	"math"
	"time"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"go.uber.org/zap"
)

// Notification levels
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Toggle notification messages
const (
	MessageLoginToSave = "Please log in to save recipes"
	MessageSaved       = "Recipe saved successfully"
	MessageRemoved     = "Recipe removed from saved recipes"
	MessageSaveFailed  = "Failed to save recipe"
)

// Notification is a transient message for the user
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Card is the summary view of one recipe
type Card struct {
	ID             int64             `json:"id"`
	Title          string            `json:"title"`
	Image          string            `json:"image,omitempty"`
	ReadyInMinutes int               `json:"readyInMinutes"`
	Servings       int               `json:"servings"`
	HealthScore    int               `json:"healthScore"`
	Difficulty     recipe.Difficulty `json:"difficulty"`
	DietLabel      string            `json:"dietLabel"`
	Diets          []string          `json:"diets"`
	Cuisines       []string          `json:"cuisines,omitempty"`
	Saved          bool              `json:"saved"`

	bookmark recipe.SavedRecipe
}

// NewCard builds the card for r. Saved starts false.
func NewCard(r recipe.Recipe) Card {
	return Card{
		ID:             r.ID,
		Title:          r.Title,
		Image:          r.Image,
		ReadyInMinutes: r.ReadyInMinutes,
		Servings:       r.Servings,
		HealthScore:    RoundHealthScore(r.HealthScore),
		Difficulty:     recipe.Classify(r.ReadyInMinutes),
		DietLabel:      recipe.DietLabel(r.Diets),
		Diets:          r.Diets,
		Cuisines:       r.Cuisines,
		bookmark:       r.Saved(),
	}
}

// CardFromSaved builds a card for a bookmark. The card is marked saved.
func CardFromSaved(s recipe.SavedRecipe) Card {
	c := NewCard(s.Recipe())
	c.bookmark = s
	c.Saved = true
	return c
}

// Bookmark returns the subset persisted when the card is saved
func (c Card) Bookmark() recipe.SavedRecipe {
	if c.bookmark.ID == c.ID {
		b := c.bookmark
		b.SavedAt = time.Time{}
		return b
	}
	return recipe.SavedRecipe{
		ID:             c.ID,
		Title:          c.Title,
		Image:          c.Image,
		ReadyInMinutes: c.ReadyInMinutes,
		Servings:       c.Servings,
		HealthScore:    float64(c.HealthScore),
		Difficulty:     recipe.Classify(c.ReadyInMinutes),
		Diets:          c.Diets,
	}
}

// RoundHealthScore rounds half away from zero
func RoundHealthScore(score float64) int {
	return int(math.Round(score))
}

// CardGroup is a titled difficulty bucket of cards
type CardGroup struct {
	Difficulty recipe.Difficulty `json:"difficulty"`
	Title      string            `json:"title"`
	Cards      []Card            `json:"recipes"`
}

// ToggleOutcome is the card after a save toggle and the notification to show
type ToggleOutcome struct {
	Card         Card         `json:"card"`
	Notification Notification `json:"notification"`
	Changed      bool         `json:"changed"`
}

// CardPresenter builds cards with per-user saved flags
type CardPresenter struct {
	saved  inbound.SavedRecipeService
	logger *zap.Logger
}

// NewCardPresenter creates a new card presenter
func NewCardPresenter(saved inbound.SavedRecipeService, logger *zap.Logger) *CardPresenter {
	return &CardPresenter{
		saved:  saved,
		logger: logger.Named("card-presenter"),
	}
}

// Cards builds one card per recipe, in order. Saved flags are filled in
// only when identity is signed in.
func (p *CardPresenter) Cards(ctx context.Context, identity *user.Identity, recipes []recipe.Recipe) []Card {
	savedIDs := p.savedIDs(ctx, identity)
	cards := make([]Card, len(recipes))
	for i, r := range recipes {
		cards[i] = NewCard(r)
		cards[i].Saved = savedIDs[r.ID]
	}
	return cards
}

// Groups builds titled card groups, keeping the order of groups
func (p *CardPresenter) Groups(ctx context.Context, identity *user.Identity, groups []recipe.Group) []CardGroup {
	savedIDs := p.savedIDs(ctx, identity)
	out := make([]CardGroup, 0, len(groups))
	for _, g := range groups {
		cards := make([]Card, len(g.Recipes))
		for i, r := range g.Recipes {
			cards[i] = NewCard(r)
			cards[i].Saved = savedIDs[r.ID]
		}
		out = append(out, CardGroup{
			Difficulty: g.Difficulty,
			Title:      g.Difficulty.Title() + " Recipes",
			Cards:      cards,
		})
	}
	return out
}

// SavedCards builds cards for a user's bookmarks
func SavedCards(saved []recipe.SavedRecipe) []Card {
	cards := make([]Card, len(saved))
	for i, s := range saved {
		cards[i] = CardFromSaved(s)
	}
	return cards
}

// ToggleSave saves or unsaves the card for identity. Without an identity
// nothing is persisted and a warning is returned. The saved flag flips only
// when persistence reports success.
func (p *CardPresenter) ToggleSave(ctx context.Context, identity *user.Identity, card Card) ToggleOutcome {
	if identity == nil {
		return ToggleOutcome{
			Card:         card,
			Notification: Notification{Level: LevelWarning, Message: MessageLoginToSave},
		}
	}

	var ok bool
	var message string
	if card.Saved {
		ok = p.saved.Unsave(ctx, identity.UID, card.ID)
		message = MessageRemoved
	} else {
		ok = p.saved.Save(ctx, identity.UID, card.Bookmark())
		message = MessageSaved
	}

	if !ok {
		p.logger.Warn("Save toggle failed",
			zap.String("uid", identity.UID),
			zap.Int64("recipe_id", card.ID),
			zap.Bool("was_saved", card.Saved))
		return ToggleOutcome{
			Card:         card,
			Notification: Notification{Level: LevelError, Message: MessageSaveFailed},
		}
	}

	card.Saved = !card.Saved
	return ToggleOutcome{
		Card:         card,
		Notification: Notification{Level: LevelSuccess, Message: message},
		Changed:      true,
	}
}

func (p *CardPresenter) savedIDs(ctx context.Context, identity *user.Identity) map[int64]bool {
	if identity == nil {
		return map[int64]bool{}
	}
	return p.saved.SavedIDs(ctx, identity.UID)
}
