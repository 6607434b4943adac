package bonus_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/bonus"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func pct(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func tier(minQty, percentage int) bonus.Tier {
	return bonus.Tier{MinQuantity: minQty, BonusPercentage: pct(percentage)}
}

func mustTable(t *testing.T, tiers ...bonus.Tier) *bonus.TierTable {
	t.Helper()
	table, err := bonus.NewTierTable(tiers)
	if err != nil {
		t.Fatalf("expected valid tier table, got %v", err)
	}
	return table
}

func receipt(participant, product, category string, price string) bonus.Receipt {
	return bonus.Receipt{
		ParticipantID:   bonus.ParticipantID(participant),
		ParticipantName: participant,
		ProductID:       bonus.ProductID("prod-" + product),
		ProductName:     product,
		CategoryID:      bonus.CategoryID(category),
		CategoryName:    category,
		Price:           money(price),
		Date:            time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// CONSTRUCTION VALIDATION
// =============================================================================

func TestNewTierTable_Empty_Rejected(t *testing.T) {
	// GIVEN: No tiers at all
	// WHEN: Building a tier table
	// THEN: ConfigurationError - a category must always have at least one tier

	_, err := bonus.NewTierTable(nil)
	if !bonus.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewTierTable_CollectsAllProblems(t *testing.T) {
	// GIVEN: A tier set with a negative threshold, an out-of-range
	//        percentage, and a duplicate minQuantity
	// WHEN: Building the table
	// THEN: Every violation is listed, not just the first

	_, err := bonus.NewTierTable([]bonus.Tier{
		{MinQuantity: -1, BonusPercentage: pct(5)},
		{MinQuantity: 10, BonusPercentage: pct(150)},
		{MinQuantity: 10, BonusPercentage: pct(20)},
	})

	var cfgErr *bonus.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}
	if len(cfgErr.Problems) < 3 {
		t.Errorf("expected at least 3 problems, got %d: %v", len(cfgErr.Problems), cfgErr.Problems)
	}
}

func TestNewTierTable_NonPositivePercentage_Rejected(t *testing.T) {
	// GIVEN: A zero and a negative percentage
	// WHEN: Building tables
	// THEN: Both rejected - percentages are whole numbers in (0, 100]

	if _, err := bonus.NewTierTable([]bonus.Tier{{MinQuantity: 5, BonusPercentage: decimal.Zero}}); err == nil {
		t.Error("zero percentage should be rejected")
	}
	if _, err := bonus.NewTierTable([]bonus.Tier{{MinQuantity: 5, BonusPercentage: pct(-10)}}); err == nil {
		t.Error("negative percentage should be rejected")
	}
}

func TestNewTierTable_NonMonotonic_Rejected(t *testing.T) {
	// GIVEN: Tiers where a higher threshold pays a lower percentage
	// WHEN: Building the table
	// THEN: Rejected - higher commitment must pay strictly better

	_, err := bonus.NewTierTable([]bonus.Tier{tier(5, 10), tier(10, 5)})
	if !bonus.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	_, err = bonus.NewTierTable([]bonus.Tier{tier(5, 10), tier(10, 10)})
	if !bonus.IsConfiguration(err) {
		t.Fatalf("equal percentages at different thresholds should be rejected, got %v", err)
	}
}

func TestNewTierTable_SortsAscending(t *testing.T) {
	// GIVEN: Tiers supplied out of order
	// WHEN: Building the table
	// THEN: Stored sorted ascending by minQuantity

	table := mustTable(t, tier(15, 15), tier(5, 5), tier(10, 10))

	tiers := table.Tiers()
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinQuantity <= tiers[i-1].MinQuantity {
			t.Fatalf("tiers not sorted: %v", tiers)
		}
	}
}

// =============================================================================
// RESOLUTION - Highest qualifying tier, never partial credit
// =============================================================================

func TestResolve_HighestQualifyingTier(t *testing.T) {
	// GIVEN: Tiers 5->5%, 10->10%, 15->15%
	// WHEN: Resolving quantity 12
	// THEN: The 10% tier wins - not a blend of 5% and 10%

	table := mustTable(t, tier(5, 5), tier(10, 10), tier(15, 15))

	matched := table.Resolve(12)
	if matched == nil {
		t.Fatal("expected a match for quantity 12")
	}
	if matched.MinQuantity != 10 || !matched.BonusPercentage.Equal(pct(10)) {
		t.Errorf("expected 10+ tier at 10%%, got %d+ at %s%%", matched.MinQuantity, matched.BonusPercentage)
	}
}

func TestResolve_BelowEveryTier_Nil(t *testing.T) {
	// GIVEN: Smallest tier requires 5
	// WHEN: Resolving 4, 0, and a negative quantity
	// THEN: No tier matches

	table := mustTable(t, tier(5, 5), tier(10, 10))

	for _, q := range []int{4, 0, -3} {
		if matched := table.Resolve(q); matched != nil {
			t.Errorf("quantity %d: expected nil, got %d+ tier", q, matched.MinQuantity)
		}
	}
}

func TestResolve_ExactThresholdQualifies(t *testing.T) {
	// GIVEN: Tier at exactly 5
	// WHEN: Resolving quantity 5
	// THEN: The tier matches (threshold is inclusive)

	table := mustTable(t, tier(5, 5), tier(10, 10))

	matched := table.Resolve(5)
	if matched == nil || matched.MinQuantity != 5 {
		t.Fatalf("quantity 5 should match the 5+ tier, got %v", matched)
	}
}

func TestResolve_Monotonic(t *testing.T) {
	// GIVEN: Any valid table
	// WHEN: Resolving increasing quantities
	// THEN: Matched percentage never decreases

	table := mustTable(t, tier(3, 5), tier(5, 10), tier(8, 15))

	last := decimal.Zero
	for q := 0; q <= 20; q++ {
		matched := table.Resolve(q)
		if matched == nil {
			continue
		}
		if matched.BonusPercentage.LessThan(last) {
			t.Fatalf("quantity %d: percentage dropped from %s to %s", q, last, matched.BonusPercentage)
		}
		last = matched.BonusPercentage
	}
}
