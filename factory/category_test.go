package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imani-Maua/TopShelf/bonus"
	"github.com/Imani-Maua/TopShelf/factory"
)

func validCategoryJSON() factory.CategoryJSON {
	return factory.CategoryJSON{
		ID:              "cat-steaks",
		Name:            "Premium Steaks",
		AggregationMode: "PER_ITEM",
		Tiers: []factory.TierJSON{
			{MinQuantity: 5, BonusPercentage: decimal.NewFromInt(10)},
			{MinQuantity: 3, BonusPercentage: decimal.NewFromInt(5)},
		},
	}
}

func TestCategoryFactory_FromJSON_Valid(t *testing.T) {
	f := factory.NewCategoryFactory()

	category, err := f.FromJSON(validCategoryJSON())
	require.NoError(t, err)
	assert.Equal(t, bonus.CategoryID("cat-steaks"), category.ID)
	assert.Equal(t, "Premium Steaks", category.Name)
	assert.Equal(t, bonus.PerItem, category.Mode)

	// Tiers come back sorted by minimum quantity.
	require.Len(t, category.Tiers, 2)
	assert.Equal(t, 3, category.Tiers[0].MinQuantity)
	assert.Equal(t, 5, category.Tiers[1].MinQuantity)
}

func TestCategoryFactory_ParseCategory_Document(t *testing.T) {
	f := factory.NewCategoryFactory()

	category, err := f.ParseCategory(`{
		"id": "cat-cocktails",
		"name": "Signature Cocktails",
		"aggregation_mode": "PER_CATEGORY",
		"tiers": [
			{"min_quantity": 10, "bonus_percentage": 5},
			{"min_quantity": 20, "bonus_percentage": 10}
		]
	}`)
	require.NoError(t, err)
	assert.Equal(t, bonus.PerCategory, category.Mode)
	require.Len(t, category.Tiers, 2)
	assert.True(t, category.Tiers[1].BonusPercentage.Equal(decimal.NewFromInt(10)))
}

func TestCategoryFactory_ParseCategory_MalformedJSON(t *testing.T) {
	f := factory.NewCategoryFactory()

	_, err := f.ParseCategory(`{"id": "cat-x", `)
	assert.Error(t, err)
}

func TestCategoryFactory_FromJSON_MissingIDOrName(t *testing.T) {
	f := factory.NewCategoryFactory()

	cj := validCategoryJSON()
	cj.ID = ""
	_, err := f.FromJSON(cj)
	require.Error(t, err)
	assert.True(t, bonus.IsConfiguration(err))

	cj = validCategoryJSON()
	cj.Name = ""
	_, err = f.FromJSON(cj)
	require.Error(t, err)
	assert.True(t, bonus.IsConfiguration(err))
}

func TestCategoryFactory_FromJSON_UnknownMode(t *testing.T) {
	f := factory.NewCategoryFactory()

	cj := validCategoryJSON()
	cj.AggregationMode = "PER_SHIFT"
	_, err := f.FromJSON(cj)
	require.Error(t, err)
	assert.True(t, bonus.IsConfiguration(err))
	assert.Contains(t, err.Error(), "PER_SHIFT")
}

func TestCategoryFactory_FromJSON_BadLadder_NamesCategory(t *testing.T) {
	f := factory.NewCategoryFactory()

	// Higher quantity with a lower percentage breaks monotonicity.
	cj := validCategoryJSON()
	cj.Tiers = []factory.TierJSON{
		{MinQuantity: 3, BonusPercentage: decimal.NewFromInt(10)},
		{MinQuantity: 5, BonusPercentage: decimal.NewFromInt(5)},
	}
	_, err := f.FromJSON(cj)
	require.Error(t, err)
	require.True(t, bonus.IsConfiguration(err))
	assert.Contains(t, err.Error(), "Premium Steaks")
}

func TestCategoryFactory_RoundTrip(t *testing.T) {
	f := factory.NewCategoryFactory()

	category, err := f.FromJSON(validCategoryJSON())
	require.NoError(t, err)

	cj := f.ToJSON(*category)
	assert.Equal(t, "cat-steaks", cj.ID)
	assert.Equal(t, "PER_ITEM", cj.AggregationMode)
	require.Len(t, cj.Tiers, 2)
	assert.Equal(t, 3, cj.Tiers[0].MinQuantity)

	again, err := f.FromJSON(cj)
	require.NoError(t, err)
	assert.Equal(t, category.Tiers, again.Tiers)
}
