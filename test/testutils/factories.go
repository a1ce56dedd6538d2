// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/spicesync/spicesync/internal/domain/pantry"
	"github.com/spicesync/spicesync/internal/domain/recipe"
)

// IngredientFactory produces pantry ingredients with deterministic fake data
type IngredientFactory struct {
	faker *gofakeit.Faker
}

// NewIngredientFactory creates a factory with a seeded faker
func NewIngredientFactory(seed int64) *IngredientFactory {
	return &IngredientFactory{faker: gofakeit.New(seed)}
}

var categories = []pantry.Category{
	pantry.CategoryProduce,
	pantry.CategoryDairy,
	pantry.CategoryMeat,
	pantry.CategoryPantry,
	pantry.CategorySpice,
	pantry.CategoryOther,
}

// Ingredient creates a single valid ingredient
func (f *IngredientFactory) Ingredient() pantry.Ingredient {
	return pantry.Ingredient{
		ID:        uuid.New(),
		Name:      f.faker.Vegetable(),
		Quantity:  fmt.Sprintf("%d units", f.faker.Number(1, 10)),
		Category:  categories[f.faker.Number(0, len(categories)-1)],
		Freshness: pantry.FreshnessFresh,
	}
}

// Ingredients creates n valid ingredients
func (f *IngredientFactory) Ingredients(n int) []pantry.Ingredient {
	items := make([]pantry.Ingredient, n)
	for i := range items {
		items[i] = f.Ingredient()
	}
	return items
}

// SuggestionBuilder provides a fluent interface for building recipe suggestions
type SuggestionBuilder struct {
	s recipe.Suggestion
}

// NewSuggestionBuilder creates a builder with sensible defaults
func NewSuggestionBuilder() *SuggestionBuilder {
	faker := gofakeit.New(0)
	title := faker.Dinner()
	return &SuggestionBuilder{
		s: recipe.Suggestion{
			ID:          uuid.New(),
			Title:       title,
			Description: faker.Sentence(8),
			CookingTime: 30,
			Difficulty:  recipe.DifficultyMedium,
			Ingredients: []recipe.Ingredient{{Name: "onion", Amount: "1"}},
			Instructions: []string{
				"Prepare the ingredients.",
				"Cook until done.",
			},
			DietaryTags: []string{},
			MatchScore:  75,
			Image:       recipe.PlaceholderImageURL(title),
		},
	}
}

func (b *SuggestionBuilder) WithTitle(title string) *SuggestionBuilder {
	b.s.Title = title
	b.s.Image = recipe.PlaceholderImageURL(title)
	return b
}

func (b *SuggestionBuilder) WithDescription(desc string) *SuggestionBuilder {
	b.s.Description = desc
	return b
}

func (b *SuggestionBuilder) WithCookingTime(minutes int) *SuggestionBuilder {
	b.s.CookingTime = minutes
	return b
}

func (b *SuggestionBuilder) WithDifficulty(d recipe.Difficulty) *SuggestionBuilder {
	b.s.Difficulty = d
	return b
}

func (b *SuggestionBuilder) WithDietaryTags(tags ...string) *SuggestionBuilder {
	b.s.DietaryTags = tags
	return b
}

func (b *SuggestionBuilder) WithMatchScore(score int) *SuggestionBuilder {
	b.s.MatchScore = score
	return b
}

// Build returns the constructed suggestion
func (b *SuggestionBuilder) Build() recipe.Suggestion {
	return b.s
}
