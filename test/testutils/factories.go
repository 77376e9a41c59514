// Package testutils provides test data factories, mocks and assertions
// shared by the package tests
package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/google/uuid"
)

var dietPool = []string{"vegan", "vegetarian", "gluten free", "ketogenic", "paleo", "dairy free"}

// RecipeFactory creates provider-shaped recipes from a seeded faker
type RecipeFactory struct {
	faker  *gofakeit.Faker
	nextID int64
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker:  gofakeit.New(seed),
		nextID: 1000,
	}
}

// Recipe returns a normalized recipe with random content
func (f *RecipeFactory) Recipe() recipe.Recipe {
	f.nextID++
	r := recipe.Recipe{
		ID:             f.nextID,
		Title:          f.faker.Dessert() + " " + f.faker.Noun(),
		Image:          f.faker.URL() + "/image.jpg",
		ReadyInMinutes: f.faker.Number(5, 120),
		Servings:       f.faker.Number(1, 10),
		HealthScore:    f.faker.Float64Range(0, 100),
		Diets:          f.diets(),
		Cuisines:       []string{f.faker.RandomString([]string{"italian", "thai", "mexican", "indian"})},
	}
	r.Normalize()
	return r
}

// RecipeWithMinutes returns a recipe that classifies by minutes
func (f *RecipeFactory) RecipeWithMinutes(minutes int) recipe.Recipe {
	r := f.Recipe()
	r.ReadyInMinutes = minutes
	r.Normalize()
	return r
}

// Recipes returns n random recipes
func (f *RecipeFactory) Recipes(n int) []recipe.Recipe {
	recipes := make([]recipe.Recipe, n)
	for i := range recipes {
		recipes[i] = f.Recipe()
	}
	return recipes
}

// DetailedRecipe returns a recipe with ingredients and one instruction block
func (f *RecipeFactory) DetailedRecipe() recipe.Recipe {
	r := f.Recipe()
	for i := 0; i < 3; i++ {
		name := f.faker.Vegetable()
		r.ExtendedIngredients = append(r.ExtendedIngredients, recipe.Ingredient{
			Name:     name,
			Original: "1 cup " + name,
			Amount:   1,
			Unit:     "cup",
		})
	}
	r.AnalyzedInstructions = []recipe.Instruction{{Steps: []recipe.Step{
		{Number: 1, Step: f.faker.Sentence(6), Equipment: []recipe.Item{{Name: "pan"}}},
		{Number: 2, Step: f.faker.Sentence(6), Ingredients: []recipe.Item{{Name: r.ExtendedIngredients[0].Name}}},
	}}}
	return r
}

// SavedRecipe returns the bookmark subset of a random recipe
func (f *RecipeFactory) SavedRecipe() recipe.SavedRecipe {
	r := f.Recipe()
	saved := r.Saved()
	saved.SavedAt = time.Now().UTC().Truncate(time.Millisecond)
	return saved
}

func (f *RecipeFactory) diets() []string {
	n := f.faker.Number(0, 2)
	diets := make([]string, 0, n)
	for i := 0; i < n; i++ {
		diets = append(diets, f.faker.RandomString(dietPool))
	}
	return diets
}

// IdentityFactory creates identities and credentials
type IdentityFactory struct {
	faker *gofakeit.Faker
}

// NewIdentityFactory creates a new identity factory with seeded faker
func NewIdentityFactory(seed int64) *IdentityFactory {
	return &IdentityFactory{faker: gofakeit.New(seed)}
}

// Identity returns a random signed-in identity
func (f *IdentityFactory) Identity() *user.Identity {
	return &user.Identity{UID: uuid.NewString(), Email: f.Email()}
}

// Email returns a random lower-case address
func (f *IdentityFactory) Email() string {
	return f.faker.Username() + "@example.com"
}

// Password returns a random password of length n
func (f *IdentityFactory) Password(n int) string {
	return f.faker.Password(true, true, true, false, false, n)
}
