package bonus

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OUTCOME - Tagged result of scoring one sales fact
// =============================================================================

// Outcome is the result of evaluating one SalesFact against its matched
// tier. Exactly two cases exist: Qualified and NotQualified. The sealed
// interface keeps the two states mutually exclusive instead of a boolean
// plus nullable fields.
type Outcome interface {
	outcome()
}

// Qualified means the fact reached a tier: the bonus amount is the fact's
// full revenue at the tier's percentage.
type Qualified struct {
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	TierLabel  string
}

// NotQualified means the fact fell below every tier. The reason is kept
// for the audit trail: zero-bonus outcomes must be explainable.
type NotQualified struct {
	Reason string
}

func (Qualified) outcome()    {}
func (NotQualified) outcome() {}

// Evaluate scores one fact against its matched tier.
func Evaluate(fact SalesFact) Outcome {
	tier := fact.MatchedTier
	if tier == nil || !tier.BonusPercentage.IsPositive() {
		return NotQualified{
			Reason: fmt.Sprintf("Below minimum threshold (sold %d)", fact.Quantity),
		}
	}
	return Qualified{
		Amount:     fact.Revenue.Mul(tier.BonusPercentage).Div(decimal.NewFromInt(100)),
		Percentage: tier.BonusPercentage,
		TierLabel:  tier.Label(),
	}
}
