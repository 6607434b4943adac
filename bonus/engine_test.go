package bonus_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/bonus"
)

// =============================================================================
// SCORING
// =============================================================================

func TestEngine_QualifiedFact_WholeNumberPercent(t *testing.T) {
	// GIVEN: A fact with 540.00 revenue matched to a 10% tier
	// WHEN: Scoring
	// THEN: Bonus is 54.00 - percentage 10 means 10%, divided by 100
	//       exactly once

	matched := tier(5, 10)
	engine := &bonus.Engine{}

	result := engine.Score([]bonus.SalesFact{{
		ProductName: "Ribeye",
		Quantity:    6,
		Revenue:     money("540.00"),
		MatchedTier: &matched,
	}})

	if !result.TotalBonus.Equal(money("54.00")) {
		t.Errorf("expected total 54.00, got %s", result.TotalBonus)
	}

	item := result.Items[0]
	if !item.Qualified {
		t.Error("fact should qualify")
	}
	if item.TierLabel != "5+ items" {
		t.Errorf("expected tier label %q, got %q", "5+ items", item.TierLabel)
	}
	if item.Reason != "" {
		t.Errorf("qualified item should carry no reason, got %q", item.Reason)
	}
}

func TestEngine_NotQualified_RetainedWithReason(t *testing.T) {
	// GIVEN: A fact below every tier
	// WHEN: Scoring
	// THEN: The fact is retained as a zero-bonus line item with a reason
	//       naming the sold quantity - negative evidence is part of the
	//       audit trail

	engine := &bonus.Engine{}

	result := engine.Score([]bonus.SalesFact{{
		ProductName: "Wagyu",
		Quantity:    2,
		Revenue:     money("180.00"),
		MatchedTier: nil,
	}})

	if !result.TotalBonus.IsZero() {
		t.Errorf("expected zero total, got %s", result.TotalBonus)
	}
	if len(result.Items) != 1 {
		t.Fatalf("non-qualifying fact must still produce a line item")
	}

	item := result.Items[0]
	if item.Qualified {
		t.Error("fact should not qualify")
	}
	if item.Reason != "Below minimum threshold (sold 2)" {
		t.Errorf("unexpected reason %q", item.Reason)
	}
	if !item.BonusAmount.IsZero() {
		t.Errorf("expected zero bonus amount, got %s", item.BonusAmount)
	}
	if item.TierLabel != "" {
		t.Errorf("unqualified item should carry no tier label, got %q", item.TierLabel)
	}
}

func TestEngine_AuditCompleteness(t *testing.T) {
	// GIVEN: A mix of qualifying and non-qualifying facts
	// WHEN: Scoring
	// THEN: Every fact produces exactly one line item

	matched := tier(3, 5)
	engine := &bonus.Engine{}

	facts := []bonus.SalesFact{
		{ProductName: "A", Quantity: 4, Revenue: money("100.00"), MatchedTier: &matched},
		{ProductName: "B", Quantity: 1, Revenue: money("25.00")},
		{ProductName: "C", Quantity: 2, Revenue: money("50.00")},
	}

	result := engine.Score(facts)
	if len(result.Items) != len(facts) {
		t.Fatalf("expected %d line items, got %d", len(facts), len(result.Items))
	}
	if !result.TotalBonus.Equal(money("5.00")) {
		t.Errorf("expected total 5.00 (100 * 5%%), got %s", result.TotalBonus)
	}
}

func TestEngine_EmptyInput(t *testing.T) {
	// GIVEN: No facts
	// WHEN: Scoring nil and an empty slice
	// THEN: Zero total, empty (non-nil) items

	engine := &bonus.Engine{}

	for _, facts := range [][]bonus.SalesFact{nil, {}} {
		result := engine.Score(facts)
		if !result.TotalBonus.IsZero() {
			t.Errorf("expected zero total, got %s", result.TotalBonus)
		}
		if result.Items == nil || len(result.Items) != 0 {
			t.Errorf("expected empty items slice, got %v", result.Items)
		}
	}
}

func TestEngine_ConstituentsCarriedThrough(t *testing.T) {
	// GIVEN: A category-wide fact with constituent product names
	// WHEN: Scoring
	// THEN: The constituents appear on the line item

	matched := tier(5, 10)
	engine := &bonus.Engine{}

	result := engine.Score([]bonus.SalesFact{{
		Quantity:            5,
		Revenue:             money("56.00"),
		MatchedTier:         &matched,
		ConstituentProducts: []string{"Margarita", "Mojito"},
	}})

	item := result.Items[0]
	if strings.Join(item.ConstituentProducts, ",") != "Margarita,Mojito" {
		t.Errorf("constituents lost: %v", item.ConstituentProducts)
	}
}

// =============================================================================
// TAGGED OUTCOME
// =============================================================================

func TestEvaluate_OutcomesAreMutuallyExclusive(t *testing.T) {
	matched := tier(5, 10)

	switch out := bonus.Evaluate(bonus.SalesFact{Quantity: 6, Revenue: money("60.00"), MatchedTier: &matched}).(type) {
	case bonus.Qualified:
		if !out.Amount.Equal(money("6.00")) {
			t.Errorf("expected 6.00, got %s", out.Amount)
		}
	default:
		t.Fatalf("expected Qualified, got %T", out)
	}

	switch out := bonus.Evaluate(bonus.SalesFact{Quantity: 6, Revenue: money("60.00")}).(type) {
	case bonus.NotQualified:
		if out.Reason == "" {
			t.Error("NotQualified must carry a reason")
		}
	default:
		t.Fatalf("expected NotQualified, got %T", out)
	}
}

func TestEvaluate_NonPositivePercentage_NotQualified(t *testing.T) {
	// A matched tier with a non-positive percentage cannot pay out. The
	// table rejects such tiers at construction, so this only guards facts
	// built by hand.
	bad := bonus.Tier{MinQuantity: 1, BonusPercentage: decimal.Zero}

	if _, ok := bonus.Evaluate(bonus.SalesFact{Quantity: 3, Revenue: money("30.00"), MatchedTier: &bad}).(bonus.NotQualified); !ok {
		t.Error("zero-percentage tier should not qualify")
	}
}
