/*
orchestrator.go - The full payout calculation for one period

PURPOSE:
  Runs the whole pipeline for a month of receipts and produces the final
  PayoutReport: validate input, guard configuration, check the forecast
  gate, group receipts by participant and category, aggregate, score, sum,
  sort.

ORDER OF OPERATIONS:
  1. Input validation: totalRevenue present and non-negative
     (InvalidRequestError), forecast present (NotFoundError) and sane
     (ConfigurationError). Raised before any grouping work.
  2. Configuration guard: every category referenced by the run must have a
     valid tier table. All offenders are collected into one
     ConfigurationError - the calculation never proceeds partially.
  3. Forecast gate: if totalRevenue is below target * threshold, return
     immediately with an empty payout list. No per-participant work runs.
  4. Group -> aggregate -> score per participant per category, preserving
     encounter order. Zero-bonus breakdowns and participants are retained:
     "this person sold but didn't qualify" is itself an auditable fact.
  5. Stable sort descending by total bonus; ties keep encounter order.

PURITY:
  The orchestrator receives already-fetched receipts, categories, and the
  forecast as plain data. No store handle is reachable from here; callers
  own loading a consistent configuration snapshot and persisting the
  report (see store/sqlite and api).
*/
package bonus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATION INPUT
// =============================================================================

// CalculationInput is everything the orchestrator needs, fully resident in
// memory. Receipts must already be filtered to the target period.
// TotalRevenue is supplied by the caller, never derived from the receipts:
// actual revenue may include non-upsell sales the engine never sees.
type CalculationInput struct {
	Receipts     []Receipt
	Categories   []Category
	Forecast     *Forecast
	TotalRevenue *decimal.Decimal
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator runs the complete calculation. It is stateless and safe for
// concurrent use across periods or tenants.
type Orchestrator struct {
	engine Engine
}

// Calculate produces the payout report for the given input.
func (o *Orchestrator) Calculate(in CalculationInput) (*PayoutReport, error) {
	if in.TotalRevenue == nil {
		return nil, &InvalidRequestError{Field: "totalRevenue", Reason: "is required"}
	}
	if in.TotalRevenue.IsNegative() {
		return nil, &InvalidRequestError{Field: "totalRevenue", Reason: "must not be negative, got " + in.TotalRevenue.String()}
	}
	if in.Forecast == nil {
		return nil, &NotFoundError{Resource: "forecast", Key: "requested period"}
	}
	if err := ValidateForecast(*in.Forecast); err != nil {
		return nil, err
	}

	tables, err := buildTierTables(in.Categories, in.Receipts)
	if err != nil {
		return nil, err
	}

	report := &PayoutReport{
		Revenues: RevenueSummary{
			Total:         *in.TotalRevenue,
			Target:        in.Forecast.TargetAmount,
			BonusEligible: in.Forecast.RequiredRevenue(),
		},
		Payouts: []ParticipantPayout{},
	}

	if !ForecastMet(*in.Forecast, *in.TotalRevenue) {
		return report, nil
	}
	report.ForecastMet = true

	for _, group := range groupReceipts(in.Receipts) {
		payout := ParticipantPayout{
			ParticipantID:   group.participantID,
			ParticipantName: group.participantName,
			TotalBonus:      decimal.Zero,
		}

		for _, cat := range group.categories {
			cfg := tables[cat.categoryID]
			facts, err := Aggregate(cat.receipts, cfg.mode, cfg.table)
			if err != nil {
				return nil, err
			}
			scored := o.engine.Score(facts)
			payout.Breakdown = append(payout.Breakdown, CategoryBreakdown{
				Category: cfg.name,
				Bonus:    scored.TotalBonus,
				Items:    scored.Items,
			})
			payout.TotalBonus = payout.TotalBonus.Add(scored.TotalBonus)
		}

		report.Payouts = append(report.Payouts, payout)
	}

	// Ties keep encounter order: the sort must be stable.
	sort.SliceStable(report.Payouts, func(i, j int) bool {
		return report.Payouts[i].TotalBonus.GreaterThan(report.Payouts[j].TotalBonus)
	})

	return report, nil
}

// =============================================================================
// CONFIGURATION GUARD
// =============================================================================

type categoryConfig struct {
	name  string
	mode  AggregationMode
	table *TierTable
}

// buildTierTables validates every category up front and collects ALL
// offenders into a single ConfigurationError so the operator can fix the
// whole setup in one pass. A receipt referencing an unconfigured category
// is also a configuration error: skipping it would silently pay nothing.
func buildTierTables(categories []Category, receipts []Receipt) (map[CategoryID]categoryConfig, error) {
	tables := make(map[CategoryID]categoryConfig, len(categories))
	var problems []string

	for _, c := range categories {
		valid := true
		if c.Mode != PerItem && c.Mode != PerCategory {
			problems = append(problems, fmt.Sprintf("category %s: unsupported aggregation mode %s", c.Name, c.Mode))
			valid = false
		}
		table, err := NewTierTable(c.Tiers)
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				for _, p := range cfgErr.Problems {
					problems = append(problems, fmt.Sprintf("category %s: %s", c.Name, p))
				}
			} else {
				problems = append(problems, fmt.Sprintf("category %s: %v", c.Name, err))
			}
			valid = false
		}
		if valid {
			tables[c.ID] = categoryConfig{name: c.Name, mode: c.Mode, table: table}
		}
	}

	for _, r := range receipts {
		if _, ok := tables[r.CategoryID]; !ok {
			if !containsCategory(categories, r.CategoryID) {
				problems = append(problems, fmt.Sprintf("category %s referenced by receipts but not configured", r.CategoryID))
			}
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigurationError{Problems: dedupe(problems)}
	}
	return tables, nil
}

// =============================================================================
// GROUPING - Participant, then category, encounter order preserved
// =============================================================================

type categoryReceipts struct {
	categoryID CategoryID
	receipts   []Receipt
}

type participantReceipts struct {
	participantID   ParticipantID
	participantName string
	categories      []*categoryReceipts
	categoryIndex   map[CategoryID]*categoryReceipts
}

func groupReceipts(receipts []Receipt) []*participantReceipts {
	index := make(map[ParticipantID]*participantReceipts)
	var groups []*participantReceipts

	for _, r := range receipts {
		group, ok := index[r.ParticipantID]
		if !ok {
			group = &participantReceipts{
				participantID:   r.ParticipantID,
				participantName: r.ParticipantName,
				categoryIndex:   make(map[CategoryID]*categoryReceipts),
			}
			index[r.ParticipantID] = group
			groups = append(groups, group)
		}

		cat, ok := group.categoryIndex[r.CategoryID]
		if !ok {
			cat = &categoryReceipts{categoryID: r.CategoryID}
			group.categoryIndex[r.CategoryID] = cat
			group.categories = append(group.categories, cat)
		}
		cat.receipts = append(cat.receipts, r)
	}

	return groups
}

// =============================================================================
// SMALL HELPERS
// =============================================================================

func containsCategory(categories []Category, id CategoryID) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
