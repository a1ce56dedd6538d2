package pantry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{"LowerCase", "produce", CategoryProduce, false},
		{"UpperCase", "DAIRY", CategoryDairy, false},
		{"MixedCase", "Spice", CategorySpice, false},
		{"Meat", "meat", CategoryMeat, false},
		{"Pantry", "pantry", CategoryPantry, false},
		{"Other", "other", CategoryOther, false},
		{"Unknown", "frozen", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFreshness(t *testing.T) {
	assert.Equal(t, FreshnessFresh, ParseFreshness("Fresh"))
	assert.Equal(t, FreshnessRipe, ParseFreshness("ripe"))
	assert.Equal(t, FreshnessExpiringSoon, ParseFreshness("expiring soon"))
	assert.Equal(t, FreshnessExpired, ParseFreshness("Expired"))

	// Unrecognized values degrade to unknown rather than failing.
	assert.Equal(t, FreshnessUnknown, ParseFreshness("mouldy"))
	assert.Equal(t, FreshnessUnknown, ParseFreshness(""))
}

func TestNewIngredient(t *testing.T) {
	t.Run("Valid_ShouldAssignFreshID", func(t *testing.T) {
		first, err := NewIngredient("Tomato", "3 whole", CategoryProduce, FreshnessRipe)
		require.NoError(t, err)
		second, err := NewIngredient("Tomato", "3 whole", CategoryProduce, FreshnessRipe)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, "Tomato", first.Name)
		assert.Equal(t, "3 whole", first.Quantity)
		assert.Equal(t, CategoryProduce, first.Category)
		assert.Equal(t, FreshnessRipe, first.Freshness)
	})

	t.Run("EmptyName_ShouldReturnError", func(t *testing.T) {
		_, err := NewIngredient("", "1 cup", CategoryOther, FreshnessFresh)
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("BlankName_ShouldReturnError", func(t *testing.T) {
		_, err := NewIngredient("   ", "1 cup", CategoryOther, FreshnessFresh)
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("InvalidCategory_ShouldReturnError", func(t *testing.T) {
		_, err := NewIngredient("Rice", "500g", Category("frozen"), FreshnessFresh)
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})
}
