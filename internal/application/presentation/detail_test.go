package presentation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDetail(t *testing.T) {
	r := testutils.NewRecipeFactory(21).DetailedRecipe()
	r.ReadyInMinutes = 30

	d := NewDetail(r, true)

	assert.True(t, d.Saved)
	assert.Equal(t, "Medium", d.DifficultyTitle)
	require.Len(t, d.Ingredients, 3)
	assert.Equal(t, r.ExtendedIngredients[0].Original, d.Ingredients[0])
	require.Len(t, d.Steps, 2)
	assert.Equal(t, 1, d.Steps[0].Number)
	assert.Equal(t, []string{"pan"}, d.Steps[0].Equipment)
	assert.Nil(t, d.Steps[0].IngredientsUsed)
	assert.Equal(t, []string{r.ExtendedIngredients[0].Name}, d.Steps[1].IngredientsUsed)
}

func TestNewDetailUsesFirstInstructionBlockOnly(t *testing.T) {
	r := testutils.NewRecipeFactory(22).Recipe()
	r.AnalyzedInstructions = []recipe.Instruction{
		{Steps: []recipe.Step{{Number: 1, Step: "Boil"}}},
		{Name: "Sauce", Steps: []recipe.Step{{Number: 1, Step: "Stir"}}},
	}

	d := NewDetail(r, false)

	require.Len(t, d.Steps, 1)
	assert.Equal(t, "Boil", d.Steps[0].Text)
}

func TestNewDetailOmitsAbsentFields(t *testing.T) {
	r := testutils.NewRecipeFactory(23).Recipe()
	r.Summary = ""

	raw, err := json.Marshal(NewDetail(r, false))
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "ingredients")
	assert.NotContains(t, fields, "steps")
	assert.NotContains(t, fields, "summary")
	assert.Contains(t, fields, "difficultyTitle")
}

func TestPresenterDetailChecksSavedFlag(t *testing.T) {
	saved := new(testutils.MockSavedRecipeService)
	p := NewCardPresenter(saved, zap.NewNop())
	r := testutils.NewRecipeFactory(24).Recipe()

	anonymous := p.Detail(context.Background(), nil, r)
	assert.False(t, anonymous.Saved)
	saved.AssertNotCalled(t, "IsSaved", mock.Anything, mock.Anything, mock.Anything)

	saved.On("IsSaved", mock.Anything, "u1", r.ID).Return(true).Once()
	signedIn := p.Detail(context.Background(), &user.Identity{UID: "u1"}, r)
	assert.True(t, signedIn.Saved)
	saved.AssertExpectations(t)
}
