/*
Package bonus provides the core sales bonus calculation engine.

PURPOSE:
  This package contains the pure computation pipeline that turns historical
  sales receipts plus configurable tier rules into an auditable, per-staff
  payout breakdown. It answers "who earned what, and why" for a month of
  upsell sales, gated by whether the revenue forecast was met.

KEY CONCEPTS IN THIS FILE (types.go):
  - Tier: A quantity threshold paired with a bonus percentage
  - Category: A product category with ordered tiers and an aggregation mode
  - Receipt: One immutable historical sale
  - SalesFact: The aggregated unit the engine scores (quantity, revenue, tier)
  - Forecast: The monthly revenue target that gates all payouts

DESIGN PRINCIPLES:
  1. Purity: The engine is a function of (receipts, categories, forecast)
     with no database handle reachable from inside it. Callers load data,
     the engine computes, callers persist the result.
  2. Precision: Uses decimal.Decimal for all money arithmetic to avoid
     floating-point errors in payouts.
  3. Type Safety: Strong typing for IDs prevents mixing participant,
     product, and category identifiers.
  4. Auditability: Non-qualifying sales are retained in the output with a
     reason, never silently dropped.

PERCENTAGE CONVENTION:
  Tier percentages are whole numbers in (0, 100]. A value of 10 means 10%.
  The engine divides by 100 exactly once, in Score. Fractional conventions
  (0.10 meaning 10%) are rejected at tier validation.

SEE ALSO:
  - tiertable.go: Tier validation and threshold resolution
  - aggregate.go: Receipt grouping per aggregation mode
  - engine.go: Scoring sales facts into line items
  - orchestrator.go: The full calculation for a period
*/
package bonus

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ParticipantID string
type ProductID string
type CategoryID string

// =============================================================================
// AGGREGATION MODE - How receipts in a category are grouped for tier matching
// =============================================================================

// AggregationMode determines whether tier thresholds apply per product or
// across the whole category.
type AggregationMode int

const (
	// AggregationUnknown is the zero value. It never matches a strategy;
	// aggregation fails loudly rather than returning an empty result.
	AggregationUnknown AggregationMode = iota

	// PerItem: the threshold must be met by a single product.
	// "Sell 5 Wagyu steaks" - 4 Wagyu + 4 Ribeye unlocks nothing.
	PerItem

	// PerCategory: the threshold is a volume commitment across all products
	// in the category. "Sell 20 cocktails of any kind."
	PerCategory
)

func (m AggregationMode) String() string {
	switch m {
	case PerItem:
		return "PER_ITEM"
	case PerCategory:
		return "PER_CATEGORY"
	default:
		return "UNKNOWN"
	}
}

// ParseAggregationMode converts the wire representation into a mode.
// Unknown values are a configuration error, not a silent default.
func ParseAggregationMode(s string) (AggregationMode, error) {
	switch s {
	case "PER_ITEM":
		return PerItem, nil
	case "PER_CATEGORY":
		return PerCategory, nil
	default:
		return AggregationUnknown, &ConfigurationError{
			Problems: []string{"unsupported aggregation mode " + strconv.Quote(s)},
		}
	}
}

// =============================================================================
// TIER - One threshold rung on a category's bonus ladder
// =============================================================================

// Tier pairs a minimum quantity with the bonus percentage unlocked at that
// quantity. Percentages are whole numbers: 10 means 10%.
type Tier struct {
	MinQuantity     int
	BonusPercentage decimal.Decimal
}

// Label returns the human-readable tier name used on payout line items,
// e.g. "5+ items".
func (t Tier) Label() string {
	return strconv.Itoa(t.MinQuantity) + "+ items"
}

// =============================================================================
// CATEGORY - Configuration owned by storage, read-only to the engine
// =============================================================================

// Category is one product category's bonus configuration. It must be a
// consistent snapshot for the duration of a calculation run; the engine
// never mutates it.
type Category struct {
	ID    CategoryID
	Name  string
	Mode  AggregationMode
	Tiers []Tier
}

// =============================================================================
// RECEIPT - One immutable historical sale
// =============================================================================

// Receipt is the engine's input unit: one sale of one product by one
// participant. Receipts arrive already filtered to the target period.
type Receipt struct {
	ParticipantID   ParticipantID
	ParticipantName string
	ProductID       ProductID
	ProductName     string
	CategoryID      CategoryID
	CategoryName    string
	Price           decimal.Decimal
	Date            time.Time
}

// =============================================================================
// SALES FACT - The aggregator's output, the engine's scoring unit
// =============================================================================

// SalesFact is one tier-matched grouping of a participant's sales within a
// category. Under PerItem there is one fact per distinct product; under
// PerCategory there is exactly one fact and ProductName is empty, with the
// distinct products recorded in ConstituentProducts.
type SalesFact struct {
	ProductName         string
	Quantity            int
	Revenue             decimal.Decimal
	MatchedTier         *Tier
	ConstituentProducts []string
}

// =============================================================================
// FORECAST - The monthly revenue gate
// =============================================================================

// Forecast is the revenue target for one month. Bonuses are paid only when
// actual revenue reaches TargetAmount * Threshold.
type Forecast struct {
	Year         int
	Month        time.Month
	TargetAmount decimal.Decimal
	Threshold    decimal.Decimal // fraction in [0, 1]
}

// RequiredRevenue returns the revenue floor that must be met before any
// bonus is paid out.
func (f Forecast) RequiredRevenue() decimal.Decimal {
	return f.TargetAmount.Mul(f.Threshold)
}
