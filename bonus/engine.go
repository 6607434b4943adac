/*
engine.go - Scoring sales facts into auditable line items

PURPOSE:
  Converts a category's tier-matched SalesFacts into LineItemResults and a
  category bonus total. Every fact produces exactly one line item, qualified
  or not - the audit requirement is to explain zero-bonus outcomes, not just
  report the positive ones.

ARITHMETIC:
  bonusAmount = revenue * bonusPercentage / 100

  Percentages are whole numbers (10 means 10%). The division by 100 happens
  here and nowhere else; see the package doc for the convention.
*/
package bonus

import "github.com/shopspring/decimal"

// =============================================================================
// ENGINE - Scores one category's facts
// =============================================================================

// Engine converts SalesFacts into scored line items.
type Engine struct{}

// ScoreResult is the engine's output for one category.
type ScoreResult struct {
	TotalBonus decimal.Decimal
	Items      []LineItemResult
}

// Score evaluates each fact and accumulates the category bonus.
// Empty or nil input yields a zero total and no items.
func (e *Engine) Score(facts []SalesFact) ScoreResult {
	result := ScoreResult{
		TotalBonus: decimal.Zero,
		Items:      make([]LineItemResult, 0, len(facts)),
	}

	for _, fact := range facts {
		item := LineItemResult{
			ProductName:         fact.ProductName,
			Quantity:            fact.Quantity,
			Revenue:             fact.Revenue,
			ConstituentProducts: fact.ConstituentProducts,
			BonusPercentage:     decimal.Zero,
			BonusAmount:         decimal.Zero,
		}

		switch outcome := Evaluate(fact).(type) {
		case Qualified:
			item.Qualified = true
			item.TierLabel = outcome.TierLabel
			item.BonusPercentage = outcome.Percentage
			item.BonusAmount = outcome.Amount
			result.TotalBonus = result.TotalBonus.Add(outcome.Amount)
		case NotQualified:
			item.Reason = outcome.Reason
		}

		result.Items = append(result.Items, item)
	}

	return result
}
