// Package recipe contains the domain model for AI-suggested recipes.
// Suggestions are transient: a batch lives only until the next fetch
// replaces it, and identifiers carry no cross-session meaning.
package recipe

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// Difficulty describes how demanding a recipe is to prepare.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Rank returns the sort rank of the difficulty.
// Unknown difficulties rank below Easy.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

// Ingredient is a single line of a recipe's ingredient list.
// Substituted flags an ingredient the pantry does not actually hold.
type Ingredient struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Substituted bool   `json:"substituted,omitempty"`
}

// Nutrition holds producer-supplied nutrition estimates. Only calories
// are numeric; the macronutrients are free-text magnitudes.
type Nutrition struct {
	Calories int    `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fats     string `json:"fats"`
}

// Suggestion is one AI-generated recipe within a fetched batch.
type Suggestion struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Image        string       `json:"image,omitempty"`
	CookingTime  int          `json:"cooking_time"`
	Difficulty   Difficulty   `json:"difficulty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	Nutrition    Nutrition    `json:"nutrition"`
	DietaryTags  []string     `json:"dietary_tags,omitempty"`
	MatchScore   int          `json:"match_score"`
}

// ImageURLFunc derives an image reference from a recipe title.
// Implementations must be deterministic: the same title always maps to
// the same URL.
type ImageURLFunc func(title string) string

// PlaceholderImageURL derives a 600x400 placeholder image seeded by the
// escaped recipe title.
func PlaceholderImageURL(title string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/600/400", url.PathEscape(title))
}
