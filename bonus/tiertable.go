/*
tiertable.go - Tier validation and threshold resolution

PURPOSE:
  A TierTable holds one category's ordered bonus tiers and resolves the
  applicable tier for a given sold quantity.

THE CORE INVARIANT:
  Highest qualifying tier, never partial credit, never double-count.
  A participant who reaches tier 3 receives tier 3's percentage on their
  ENTIRE counted revenue - not a blended rate across tiers.

MONOTONIC PROGRESSION:
  Within a category, minQuantity values are pairwise distinct, percentages
  are pairwise distinct, and sorting by minQuantity ascending must yield
  strictly increasing percentages. Higher commitment must pay strictly
  better; an equal or lower reward at a higher threshold is a configuration
  mistake and is rejected with every violation listed.

SEE ALSO:
  - aggregate.go: Calls Resolve once per sales fact
  - errors.go: ConfigurationError returned by NewTierTable
*/
package bonus

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER TABLE - One category's bonus ladder
// =============================================================================

// TierTable is an immutable, validated, ascending-sorted set of tiers.
type TierTable struct {
	tiers []Tier
}

// NewTierTable validates and sorts the given tiers.
// It collects every violation it finds rather than stopping at the first,
// so an operator can fix the whole category in one pass.
func NewTierTable(tiers []Tier) (*TierTable, error) {
	var problems []string

	if len(tiers) == 0 {
		return nil, &ConfigurationError{Problems: []string{"at least one tier is required"}}
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity < sorted[j].MinQuantity
	})

	hundred := decimal.NewFromInt(100)
	for i, t := range sorted {
		if t.MinQuantity < 0 {
			problems = append(problems, fmt.Sprintf("tier %d: minQuantity %d is negative", i+1, t.MinQuantity))
		}
		if !t.BonusPercentage.IsPositive() || t.BonusPercentage.GreaterThan(hundred) {
			problems = append(problems, fmt.Sprintf("tier %d: bonusPercentage %s is outside (0, 100]", i+1, t.BonusPercentage.String()))
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if t.MinQuantity == prev.MinQuantity {
			problems = append(problems, fmt.Sprintf("duplicate minQuantity %d", t.MinQuantity))
		}
		if t.BonusPercentage.Equal(prev.BonusPercentage) {
			problems = append(problems, fmt.Sprintf("duplicate bonusPercentage %s", t.BonusPercentage.String()))
		} else if t.BonusPercentage.LessThan(prev.BonusPercentage) {
			problems = append(problems, fmt.Sprintf(
				"non-monotonic progression: %d+ items pays %s%% but %d+ items pays %s%%",
				prev.MinQuantity, prev.BonusPercentage.String(),
				t.MinQuantity, t.BonusPercentage.String()))
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigurationError{Problems: problems}
	}

	return &TierTable{tiers: sorted}, nil
}

// Resolve returns the tier with the largest minQuantity that is <= quantity,
// or nil if the quantity is below every tier's minimum. minQuantity values
// are unique by construction so the scan is deterministic.
func (tt *TierTable) Resolve(quantity int) *Tier {
	var matched *Tier
	for i := range tt.tiers {
		if tt.tiers[i].MinQuantity > quantity {
			break
		}
		matched = &tt.tiers[i]
	}
	if matched == nil {
		return nil
	}
	t := *matched
	return &t
}

// Tiers returns the validated tiers in ascending minQuantity order.
func (tt *TierTable) Tiers() []Tier {
	out := make([]Tier, len(tt.tiers))
	copy(out, tt.tiers)
	return out
}
