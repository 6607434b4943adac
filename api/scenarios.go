/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates categories, products,
	participants, receipts, and a forecast that demonstrate specific
	engine behavior.

AVAILABLE SCENARIOS:

	steakhouse-month:  Full month of steak and cocktail sales with every
	                   outcome represented (qualified, not qualified,
	                   per-item and per-category aggregation)
	missed-forecast:   Same sales against a higher target, so the revenue
	                   gate blocks all payouts
	fresh-start:       Category and product catalog only, no sales

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create categories via factory
 3. Create participants and products
 4. Insert receipts for the scenario month
 5. Save the forecast

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "steakhouse-month"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/category.go: Category JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/bonus"
	"github.com/Imani-Maua/TopShelf/factory"
	"github.com/Imani-Maua/TopShelf/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "steakhouse-month",
		Name:        "Steakhouse Month",
		Description: "Per-item steaks and per-category cocktails with qualified and unqualified sellers",
	},
	{
		ID:          "missed-forecast",
		Name:        "Missed Forecast",
		Description: "Same sales against an unreachable target: the revenue gate blocks all payouts",
	},
	{
		ID:          "fresh-start",
		Name:        "Fresh Start",
		Description: "Category and product catalog only, no sales or forecast",
	},
}

// The month every scenario populates.
const (
	scenarioYear  = 2025
	scenarioMonth = time.June
)

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "steakhouse-month":
		err = h.loadSteakhouseMonthScenario(ctx)
	case "missed-forecast":
		err = h.loadMissedForecastScenario(ctx)
	case "fresh-start":
		err = h.loadFreshStartScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase wipes all data without loading a scenario.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadFreshStartScenario sets up the catalog with no sales data.
func (h *Handler) loadFreshStartScenario(ctx context.Context) error {
	return h.loadCatalog(ctx)
}

// loadSteakhouseMonthScenario populates a month where the forecast is met
// and every aggregation path produces output: Alice qualifies per item on
// two steaks, Bob qualifies per category on pooled cocktails, and Diana
// sells too little of everything to qualify.
func (h *Handler) loadSteakhouseMonthScenario(ctx context.Context) error {
	if err := h.loadCatalog(ctx); err != nil {
		return err
	}
	if err := h.loadSales(ctx); err != nil {
		return err
	}
	// Target 1,000 at 90%: the gate needs 900 and the month's receipts
	// (1,099 total) clear it without an externally supplied house figure.
	return h.Store.SaveForecast(ctx, bonus.Forecast{
		Year:         scenarioYear,
		Month:        scenarioMonth,
		TargetAmount: decimal.NewFromInt(1000),
		Threshold:    decimal.RequireFromString("0.9"),
	})
}

// loadMissedForecastScenario uses the same sales but a target no month
// could reach, so the calculation reports forecastMet=false and pays nobody.
func (h *Handler) loadMissedForecastScenario(ctx context.Context) error {
	if err := h.loadCatalog(ctx); err != nil {
		return err
	}
	if err := h.loadSales(ctx); err != nil {
		return err
	}
	return h.Store.SaveForecast(ctx, bonus.Forecast{
		Year:         scenarioYear,
		Month:        scenarioMonth,
		TargetAmount: decimal.NewFromInt(50000),
		Threshold:    decimal.RequireFromString("0.9"),
	})
}

// =============================================================================
// FIXTURE BUILDING BLOCKS
// =============================================================================

// loadCatalog creates the category, participant, and product fixtures shared
// by all scenarios.
func (h *Handler) loadCatalog(ctx context.Context) error {
	// Steaks reward pushing individual cuts: each product must clear the
	// ladder on its own. Cocktails pool the whole category.
	categoryConfigs := []factory.CategoryJSON{
		{
			ID:              "cat-steaks",
			Name:            "Premium Steaks",
			AggregationMode: "PER_ITEM",
			Tiers: []factory.TierJSON{
				{MinQuantity: 3, BonusPercentage: decimal.NewFromInt(5)},
				{MinQuantity: 5, BonusPercentage: decimal.NewFromInt(10)},
				{MinQuantity: 8, BonusPercentage: decimal.NewFromInt(15)},
			},
		},
		{
			ID:              "cat-cocktails",
			Name:            "Signature Cocktails",
			AggregationMode: "PER_CATEGORY",
			Tiers: []factory.TierJSON{
				{MinQuantity: 10, BonusPercentage: decimal.NewFromInt(5)},
				{MinQuantity: 20, BonusPercentage: decimal.NewFromInt(10)},
				{MinQuantity: 30, BonusPercentage: decimal.NewFromInt(15)},
			},
		},
	}
	for _, cj := range categoryConfigs {
		category, err := h.CategoryFactory.FromJSON(cj)
		if err != nil {
			return err
		}
		if err := h.Store.SaveCategory(ctx, *category); err != nil {
			return err
		}
	}

	participants := []sqlite.Participant{
		{ID: "p-alice", Name: "Alice", Email: "alice@example.com"},
		{ID: "p-bob", Name: "Bob", Email: "bob@example.com"},
		{ID: "p-diana", Name: "Diana", Email: "diana@example.com"},
	}
	for _, p := range participants {
		if err := h.Store.SaveParticipant(ctx, p); err != nil {
			return err
		}
	}

	products := []sqlite.Product{
		{ID: "prod-ribeye", Name: "Ribeye", CategoryID: "cat-steaks"},
		{ID: "prod-wagyu", Name: "Wagyu Sirloin", CategoryID: "cat-steaks"},
		{ID: "prod-filet", Name: "Filet Mignon", CategoryID: "cat-steaks"},
		{ID: "prod-margarita", Name: "Margarita", CategoryID: "cat-cocktails"},
		{ID: "prod-mojito", Name: "Mojito", CategoryID: "cat-cocktails"},
		{ID: "prod-oldfashioned", Name: "Old Fashioned", CategoryID: "cat-cocktails"},
		{ID: "prod-negroni", Name: "Negroni", CategoryID: "cat-cocktails"},
		{ID: "prod-daiquiri", Name: "Daiquiri", CategoryID: "cat-cocktails"},
	}
	for _, p := range products {
		if err := h.Store.SaveProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// loadSales inserts the month's receipts:
//   - Alice: 6 Ribeye at 60 and 3 Wagyu at 90 (both steaks qualify per item)
//   - Bob: 25 cocktails at 11 spread over five products (pooled quantity
//     clears the 20-drink tier)
//   - Diana: 2 Filet at 75 and 4 cocktails at 11 (nothing qualifies)
func (h *Handler) loadSales(ctx context.Context) error {
	var receipts []bonus.Receipt

	add := func(participant, product string, price string, n int) {
		for i := 0; i < n; i++ {
			receipts = append(receipts, bonus.Receipt{
				ParticipantID: bonus.ParticipantID(participant),
				ProductID:     bonus.ProductID(product),
				Price:         decimal.RequireFromString(price),
				Date:          time.Date(scenarioYear, scenarioMonth, 3+i%25, 0, 0, 0, 0, time.UTC),
			})
		}
	}

	add("p-alice", "prod-ribeye", "60.00", 6)
	add("p-alice", "prod-wagyu", "90.00", 3)

	add("p-bob", "prod-margarita", "11.00", 6)
	add("p-bob", "prod-mojito", "11.00", 5)
	add("p-bob", "prod-oldfashioned", "11.00", 5)
	add("p-bob", "prod-negroni", "11.00", 5)
	add("p-bob", "prod-daiquiri", "11.00", 4)

	add("p-diana", "prod-filet", "75.00", 2)
	add("p-diana", "prod-margarita", "11.00", 2)
	add("p-diana", "prod-mojito", "11.00", 2)

	return h.Store.InsertReceipts(ctx, receipts)
}
