// Package pantry contains the core domain logic for the ingredient inventory.
package pantry

import (
	"strings"

	"github.com/google/uuid"
)

// Category classifies an ingredient into one of the fixed pantry categories.
type Category string

const (
	CategoryProduce Category = "produce"
	CategoryDairy   Category = "dairy"
	CategoryMeat    Category = "meat"
	CategoryPantry  Category = "pantry"
	CategorySpice   Category = "spice"
	CategoryOther   Category = "other"
)

// ParseCategory parses a category label case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryProduce:
		return CategoryProduce, nil
	case CategoryDairy:
		return CategoryDairy, nil
	case CategoryMeat:
		return CategoryMeat, nil
	case CategoryPantry:
		return CategoryPantry, nil
	case CategorySpice:
		return CategorySpice, nil
	case CategoryOther:
		return CategoryOther, nil
	default:
		return "", ErrInvalidCategory
	}
}

// Freshness describes the reported condition of an ingredient.
// The zero value means unknown.
type Freshness string

const (
	FreshnessUnknown      Freshness = ""
	FreshnessFresh        Freshness = "Fresh"
	FreshnessRipe         Freshness = "Ripe"
	FreshnessExpiringSoon Freshness = "Expiring Soon"
	FreshnessExpired      Freshness = "Expired"
)

// ParseFreshness maps a reported freshness label onto the known set.
// Anything unrecognized is treated as unknown rather than rejected;
// freshness is advisory and never enforced against expiry dates.
func ParseFreshness(s string) Freshness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fresh":
		return FreshnessFresh
	case "ripe":
		return FreshnessRipe
	case "expiring soon":
		return FreshnessExpiringSoon
	case "expired":
		return FreshnessExpired
	default:
		return FreshnessUnknown
	}
}

// Ingredient is a single pantry item. Items are immutable once created;
// edits are modeled as remove followed by re-add.
type Ingredient struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Quantity   string    `json:"quantity"`
	Category   Category  `json:"category"`
	Freshness  Freshness `json:"freshness,omitempty"`
	ExpiryDate string    `json:"expiry_date,omitempty"`
}

// NewIngredient creates an Ingredient with a fresh identifier.
func NewIngredient(name, quantity string, category Category, freshness Freshness) (Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Ingredient{}, ErrEmptyName
	}

	if _, err := ParseCategory(string(category)); err != nil {
		return Ingredient{}, err
	}

	return Ingredient{
		ID:        uuid.New(),
		Name:      name,
		Quantity:  quantity,
		Category:  category,
		Freshness: freshness,
	}, nil
}
