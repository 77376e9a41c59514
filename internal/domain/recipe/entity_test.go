package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeTestSuite covers classification, grouping and diet labelling
type RecipeTestSuite struct {
	suite.Suite
}

func recipeWithMinutes(id int64, minutes int) Recipe {
	return Recipe{ID: id, Title: "Recipe", ReadyInMinutes: minutes}
}

func (suite *RecipeTestSuite) TestClassify() {
	cases := []struct {
		minutes int
		want    Difficulty
	}{
		{0, DifficultyEasy},
		{20, DifficultyEasy},
		{21, DifficultyMedium},
		{45, DifficultyMedium},
		{46, DifficultyHard},
		{180, DifficultyHard},
	}

	for _, tc := range cases {
		assert.Equal(suite.T(), tc.want, Classify(tc.minutes), "minutes=%d", tc.minutes)
	}
}

func (suite *RecipeTestSuite) TestNormalize() {
	suite.Run("UpstreamDifficulty_ShouldBeRecomputed", func() {
		// Arrange
		r := Recipe{ID: 1, ReadyInMinutes: 50, Difficulty: DifficultyEasy}

		// Act
		r.Normalize()

		// Assert
		assert.Equal(suite.T(), DifficultyHard, r.Difficulty)
	})

	suite.Run("Slice_ShouldNormalizeEveryRecipe", func() {
		recipes := Normalized([]Recipe{recipeWithMinutes(1, 10), recipeWithMinutes(2, 30)})

		assert.Equal(suite.T(), DifficultyEasy, recipes[0].Difficulty)
		assert.Equal(suite.T(), DifficultyMedium, recipes[1].Difficulty)
	})
}

func (suite *RecipeTestSuite) TestGroupByDifficulty() {
	suite.Run("MixedRecipes_ShouldPartitionPreservingOrder", func() {
		// Arrange
		recipes := []Recipe{
			recipeWithMinutes(1, 15),
			recipeWithMinutes(2, 60),
			recipeWithMinutes(3, 30),
			recipeWithMinutes(4, 5),
		}

		// Act
		groups := GroupByDifficulty(recipes)

		// Assert
		require.Len(suite.T(), groups, 3)
		assert.Equal(suite.T(), []int64{1, 4}, ids(groups[DifficultyEasy]))
		assert.Equal(suite.T(), []int64{3}, ids(groups[DifficultyMedium]))
		assert.Equal(suite.T(), []int64{2}, ids(groups[DifficultyHard]))
	})

	suite.Run("SingleBucket_ShouldOmitEmptyBuckets", func() {
		groups := GroupByDifficulty([]Recipe{recipeWithMinutes(1, 10), recipeWithMinutes(2, 12)})

		require.Len(suite.T(), groups, 1)
		_, hasMedium := groups[DifficultyMedium]
		assert.False(suite.T(), hasMedium)
	})

	suite.Run("NoRecipes_ShouldReturnEmptyMap", func() {
		assert.Empty(suite.T(), GroupByDifficulty(nil))
		assert.Empty(suite.T(), Groups(nil))
	})

	suite.Run("StaleDifficultyField_ShouldBeIgnored", func() {
		r := recipeWithMinutes(1, 90)
		r.Difficulty = DifficultyEasy

		groups := GroupByDifficulty([]Recipe{r})

		assert.Len(suite.T(), groups[DifficultyHard], 1)
	})
}

func (suite *RecipeTestSuite) TestGroupsOrder() {
	groups := Groups([]Recipe{recipeWithMinutes(1, 90), recipeWithMinutes(2, 5)})

	require.Len(suite.T(), groups, 2)
	assert.Equal(suite.T(), DifficultyEasy, groups[0].Difficulty)
	assert.Equal(suite.T(), DifficultyHard, groups[1].Difficulty)
}

func (suite *RecipeTestSuite) TestDietLabel() {
	assert.Equal(suite.T(), DietLabelUnknown, DietLabel(nil))
	assert.Equal(suite.T(), DietLabelNonVeg, DietLabel([]string{}))
	assert.Equal(suite.T(), DietLabelVegan, DietLabel([]string{"vegetarian", "vegan"}))
	assert.Equal(suite.T(), DietLabelVegetarian, DietLabel([]string{"gluten free", "vegetarian"}))
	assert.Equal(suite.T(), DietLabelNonVeg, DietLabel([]string{"paleo"}))
}

func (suite *RecipeTestSuite) TestDietsSurviveJSON() {
	suite.Run("NullDiets_ShouldStayNil", func() {
		var r Recipe
		require.NoError(suite.T(), json.Unmarshal([]byte(`{"id":1,"title":"Soup"}`), &r))
		assert.Nil(suite.T(), r.Diets)

		raw, err := json.Marshal(r)
		require.NoError(suite.T(), err)
		var back Recipe
		require.NoError(suite.T(), json.Unmarshal(raw, &back))
		assert.Nil(suite.T(), back.Diets)
	})

	suite.Run("EmptyDiets_ShouldStayEmpty", func() {
		var r Recipe
		require.NoError(suite.T(), json.Unmarshal([]byte(`{"id":1,"title":"Soup","diets":[]}`), &r))
		assert.NotNil(suite.T(), r.Diets)
		assert.Empty(suite.T(), r.Diets)
	})
}

func (suite *RecipeTestSuite) TestSavedRecipe() {
	suite.Run("Saved_ShouldCarrySubsetAndDifficulty", func() {
		r := Recipe{ID: 9, Title: "Stew", ReadyInMinutes: 120, Servings: 4, HealthScore: 55.5, Diets: []string{"paleo"}}

		saved := r.Saved()

		assert.Equal(suite.T(), int64(9), saved.ID)
		assert.Equal(suite.T(), DifficultyHard, saved.Difficulty)
		assert.Equal(suite.T(), []string{"paleo"}, saved.Diets)
		assert.True(suite.T(), saved.SavedAt.IsZero())
		assert.NoError(suite.T(), saved.Validate())
	})

	suite.Run("Invalid_ShouldReturnError", func() {
		assert.ErrorIs(suite.T(), SavedRecipe{Title: "x"}.Validate(), ErrInvalidRecipeID)
		assert.ErrorIs(suite.T(), SavedRecipe{ID: 1}.Validate(), ErrEmptyTitle)
		assert.ErrorIs(suite.T(), SavedRecipe{ID: 1, Title: "x", Servings: -1}.Validate(), ErrNegativeQuantity)
	})

	suite.Run("Recipe_ShouldRecomputeDifficulty", func() {
		saved := SavedRecipe{ID: 3, Title: "Toast", ReadyInMinutes: 5, Difficulty: DifficultyHard}

		assert.Equal(suite.T(), DifficultyEasy, saved.Recipe().Difficulty)
	})
}

func (suite *RecipeTestSuite) TestFirstSteps() {
	r := Recipe{AnalyzedInstructions: []Instruction{
		{Steps: []Step{{Number: 1, Step: "Boil"}}},
		{Steps: []Step{{Number: 1, Step: "Ignored"}}},
	}}

	assert.Equal(suite.T(), "Boil", r.FirstSteps()[0].Step)
	assert.Nil(suite.T(), (&Recipe{}).FirstSteps())
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}

func ids(recipes []Recipe) []int64 {
	out := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ID)
	}
	return out
}

func TestDifficultyTitle(t *testing.T) {
	assert.Equal(t, "Medium", DifficultyMedium.Title())
	assert.True(t, DifficultyHard.IsValid())
	assert.False(t, Difficulty("expert").IsValid())
}
