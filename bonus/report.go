package bonus

import "github.com/shopspring/decimal"

// =============================================================================
// PAYOUT REPORT - The calculation's final, JSON-serializable output
// =============================================================================
// Produced once per calculation run and handed back to the caller; the
// engine never persists it. Decimal fields marshal as JSON strings to keep
// payout amounts exact on the wire.

// LineItemResult is one scored sales fact on a participant's breakdown.
// Reason is populated only when Qualified is false.
type LineItemResult struct {
	ProductName         string          `json:"productName,omitempty"`
	Quantity            int             `json:"quantity"`
	Revenue             decimal.Decimal `json:"revenue"`
	Qualified           bool            `json:"qualified"`
	TierLabel           string          `json:"tierLabel,omitempty"`
	BonusPercentage     decimal.Decimal `json:"bonusPercentage"`
	BonusAmount         decimal.Decimal `json:"bonusAmount"`
	Reason              string          `json:"reason,omitempty"`
	ConstituentProducts []string        `json:"constituentProducts,omitempty"`
}

// CategoryBreakdown is one category's contribution to a participant's
// payout, retained even when the bonus is zero.
type CategoryBreakdown struct {
	Category string           `json:"category"`
	Bonus    decimal.Decimal  `json:"bonus"`
	Items    []LineItemResult `json:"items"`
}

// ParticipantPayout is one participant's total and its full audit trail.
type ParticipantPayout struct {
	ParticipantID   ParticipantID       `json:"participantId"`
	ParticipantName string              `json:"participantName"`
	TotalBonus      decimal.Decimal     `json:"totalBonus"`
	Breakdown       []CategoryBreakdown `json:"breakdown"`
}

// RevenueSummary records the gate arithmetic on the report.
type RevenueSummary struct {
	Total         decimal.Decimal `json:"total"`
	Target        decimal.Decimal `json:"target"`
	BonusEligible decimal.Decimal `json:"bonusEligible"`
}

// PayoutReport is the top-level calculation result. When the forecast gate
// fails, ForecastMet is false and Payouts is empty - a distinct outcome
// from "no sales this period", where ForecastMet is true and Payouts is
// empty because nobody sold anything.
type PayoutReport struct {
	ForecastMet bool                `json:"forecastMet"`
	Revenues    RevenueSummary      `json:"revenues"`
	Payouts     []ParticipantPayout `json:"payouts"`
}
