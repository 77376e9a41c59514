package recipe

import "strings"

// Difficulty is a coarse label derived from a recipe's ready time
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulty thresholds in minutes, inclusive
const (
	EasyMaxMinutes   = 20
	MediumMaxMinutes = 45
)

// Difficulties lists every difficulty in display order
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Classify maps a ready time in minutes to a Difficulty
func Classify(minutes int) Difficulty {
	switch {
	case minutes <= EasyMaxMinutes:
		return DifficultyEasy
	case minutes <= MediumMaxMinutes:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// IsValid reports whether d is one of the known difficulties
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Title returns d with its first letter capitalised ("Easy")
func (d Difficulty) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Group is one non-empty difficulty bucket
type Group struct {
	Difficulty Difficulty `json:"difficulty"`
	Recipes    []Recipe   `json:"recipes"`
}

// GroupByDifficulty partitions recipes by their own Classify(ReadyInMinutes).
// Relative order is preserved inside each bucket and empty buckets are
// absent from the result.
func GroupByDifficulty(recipes []Recipe) map[Difficulty][]Recipe {
	groups := make(map[Difficulty][]Recipe)
	for _, r := range recipes {
		d := Classify(r.ReadyInMinutes)
		groups[d] = append(groups[d], r)
	}
	return groups
}

// Groups returns the GroupByDifficulty partition as a slice ordered
// easy, medium, hard.
func Groups(recipes []Recipe) []Group {
	byDifficulty := GroupByDifficulty(recipes)
	groups := make([]Group, 0, len(byDifficulty))
	for _, d := range Difficulties {
		if rs, ok := byDifficulty[d]; ok {
			groups = append(groups, Group{Difficulty: d, Recipes: rs})
		}
	}
	return groups
}

// Diet labels shown on recipe cards
const (
	DietLabelVegan      = "Vegan"
	DietLabelVegetarian = "Vegetarian"
	DietLabelNonVeg     = "Non-Veg"
	DietLabelUnknown    = "unknown"
)

// DietLabel summarises a recipe's diets. Vegan wins over vegetarian; a nil
// diets list means the provider did not report diets at all.
func DietLabel(diets []string) string {
	if diets == nil {
		return DietLabelUnknown
	}
	if hasDiet(diets, "vegan") {
		return DietLabelVegan
	}
	if hasDiet(diets, "vegetarian") {
		return DietLabelVegetarian
	}
	return DietLabelNonVeg
}

func hasDiet(diets []string, want string) bool {
	for _, d := range diets {
		if d == want {
			return true
		}
	}
	return false
}
