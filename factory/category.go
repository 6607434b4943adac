/*
Package factory provides JSON to Go category configuration conversion.

PURPOSE:
  Converts JSON category definitions into bonus.Category values. This lets
  managers define tier ladders without code changes - the admin UI posts
  JSON, and the factory produces validated configuration.

JSON SCHEMA:
  {
    "id": "cat-steaks",
    "name": "steaks",
    "aggregation_mode": "PER_ITEM",
    "tiers": [
      {"min_quantity": 3, "bonus_percentage": 5},
      {"min_quantity": 5, "bonus_percentage": 10},
      {"min_quantity": 8, "bonus_percentage": 15}
    ]
  }

VALIDATION:
  The factory runs the exact same rules as the calculation engine
  (bonus.NewTierTable and bonus.ParseAggregationMode), so a configuration
  the factory accepts can never fail the engine's guard later. Percentages
  are whole numbers: 10 means 10%, never 0.10.

SEE ALSO:
  - bonus/tiertable.go: The validation rules
  - api/handlers.go: CreateCategory/UpdateCategory use this factory
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/bonus"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CategoryJSON is the JSON representation of a category's bonus setup.
type CategoryJSON struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	AggregationMode string     `json:"aggregation_mode"`
	Tiers           []TierJSON `json:"tiers"`
}

// TierJSON is one rung of the bonus ladder.
type TierJSON struct {
	MinQuantity     int             `json:"min_quantity"`
	BonusPercentage decimal.Decimal `json:"bonus_percentage"`
}

// =============================================================================
// CATEGORY FACTORY
// =============================================================================

// CategoryFactory converts JSON category configs to domain values.
type CategoryFactory struct{}

// NewCategoryFactory creates a new category factory.
func NewCategoryFactory() *CategoryFactory {
	return &CategoryFactory{}
}

// ParseCategory parses and validates a JSON document.
func (f *CategoryFactory) ParseCategory(jsonStr string) (*bonus.Category, error) {
	var cj CategoryJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse category JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts CategoryJSON into a validated bonus.Category.
func (f *CategoryFactory) FromJSON(cj CategoryJSON) (*bonus.Category, error) {
	if cj.ID == "" {
		return nil, &bonus.ConfigurationError{Category: cj.Name, Problems: []string{"category id is required"}}
	}
	if cj.Name == "" {
		return nil, &bonus.ConfigurationError{Category: cj.ID, Problems: []string{"category name is required"}}
	}

	mode, err := bonus.ParseAggregationMode(cj.AggregationMode)
	if err != nil {
		return nil, &bonus.ConfigurationError{
			Category: cj.Name,
			Problems: []string{"unsupported aggregation mode " + fmt.Sprintf("%q", cj.AggregationMode)},
		}
	}

	tiers := make([]bonus.Tier, 0, len(cj.Tiers))
	for _, tj := range cj.Tiers {
		tiers = append(tiers, bonus.Tier{
			MinQuantity:     tj.MinQuantity,
			BonusPercentage: tj.BonusPercentage,
		})
	}

	// Same rules the engine's configuration guard applies at calculation
	// time: what passes here cannot fail there.
	table, err := bonus.NewTierTable(tiers)
	if err != nil {
		var cfgErr *bonus.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Category = cj.Name
			return nil, cfgErr
		}
		return nil, err
	}

	return &bonus.Category{
		ID:    bonus.CategoryID(cj.ID),
		Name:  cj.Name,
		Mode:  mode,
		Tiers: table.Tiers(),
	}, nil
}

// ToJSON converts a category back to its JSON representation.
func (f *CategoryFactory) ToJSON(c bonus.Category) CategoryJSON {
	cj := CategoryJSON{
		ID:              string(c.ID),
		Name:            c.Name,
		AggregationMode: c.Mode.String(),
		Tiers:           make([]TierJSON, 0, len(c.Tiers)),
	}
	for _, t := range c.Tiers {
		cj.Tiers = append(cj.Tiers, TierJSON{
			MinQuantity:     t.MinQuantity,
			BonusPercentage: t.BonusPercentage,
		})
	}
	return cj
}
