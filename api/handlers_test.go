/*
handlers_test.go - End-to-end tests for the HTTP API

Tests run real requests through the chi router against an in-memory
store, covering:
- Payout calculation (happy path, missing forecast, bad input)
- Category configuration validation over HTTP
- Report persistence and retrieval
- CSV import endpoint
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestAPI(t *testing.T) (*Handler, http.Handler) {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	return h, NewRouter(h, []string{"http://localhost:5173"})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return out
}

// =============================================================================
// PAYOUT CALCULATION
// =============================================================================

func TestCalculate_SteakhouseMonth(t *testing.T) {
	// GIVEN: The steakhouse scenario (forecast met, mixed outcomes)
	h, router := newTestAPI(t)
	if err := h.loadSteakhouseMonthScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	// WHEN: Calculating June 2025
	rec := doJSON(t, router, http.MethodPost, "/api/payouts/calculate", CalculateRequest{
		Year: 2025, Month: 6,
	})

	// THEN: The forecast is met and payouts are ranked by total bonus
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[CalculateResponse](t, rec)
	if !resp.Report.ForecastMet {
		t.Fatalf("Expected forecast to be met")
	}
	if len(resp.Report.Payouts) != 3 {
		t.Fatalf("Expected 3 payouts, got %d", len(resp.Report.Payouts))
	}

	alice := resp.Report.Payouts[0]
	if alice.ParticipantName != "Alice" {
		t.Fatalf("Expected Alice first, got %s", alice.ParticipantName)
	}
	if !alice.TotalBonus.Equal(decimal.RequireFromString("49.50")) {
		t.Fatalf("Expected Alice total 49.50, got %s", alice.TotalBonus)
	}

	bob := resp.Report.Payouts[1]
	if !bob.TotalBonus.Equal(decimal.RequireFromString("27.50")) {
		t.Fatalf("Expected Bob total 27.50, got %s", bob.TotalBonus)
	}

	diana := resp.Report.Payouts[2]
	if !diana.TotalBonus.IsZero() {
		t.Fatalf("Expected Diana total 0, got %s", diana.TotalBonus)
	}
}

func TestCalculate_MissedForecast_PaysNobody(t *testing.T) {
	// GIVEN: The same sales against an unreachable target
	h, router := newTestAPI(t)
	if err := h.loadMissedForecastScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	// WHEN: Calculating June 2025
	rec := doJSON(t, router, http.MethodPost, "/api/payouts/calculate", CalculateRequest{
		Year: 2025, Month: 6,
	})

	// THEN: The report still succeeds but the gate blocks all payouts
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[CalculateResponse](t, rec)
	if resp.Report.ForecastMet {
		t.Fatalf("Expected forecast not met")
	}
	if len(resp.Report.Payouts) != 0 {
		t.Fatalf("Expected no payouts, got %d", len(resp.Report.Payouts))
	}
}

func TestCalculate_NoForecast_Returns404(t *testing.T) {
	// GIVEN: Sales but no forecast for the period
	h, router := newTestAPI(t)
	if err := h.loadFreshStartScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	// WHEN: Calculating a month with no forecast
	rec := doJSON(t, router, http.MethodPost, "/api/payouts/calculate", CalculateRequest{
		Year: 2025, Month: 6,
	})

	// THEN: 404, clearly distinct from a zero-payout success
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCalculate_InvalidMonth_Returns400(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/payouts/calculate", CalculateRequest{
		Year: 2025, Month: 13,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestCalculate_ExplicitRevenue_OverridesReceiptSum(t *testing.T) {
	// GIVEN: The steakhouse scenario, whose receipts sum to 1099
	h, router := newTestAPI(t)
	if err := h.loadSteakhouseMonthScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	// WHEN: Supplying a house total below the 900 gate
	low := decimal.NewFromInt(500)
	rec := doJSON(t, router, http.MethodPost, "/api/payouts/calculate", CalculateRequest{
		Year: 2025, Month: 6, TotalRevenue: &low,
	})

	// THEN: The explicit figure wins and the gate blocks payouts
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[CalculateResponse](t, rec)
	if resp.Report.ForecastMet {
		t.Fatalf("Expected forecast not met with explicit low revenue")
	}
}

func TestCalculate_SaveAndFetchReport(t *testing.T) {
	// GIVEN: A calculated month saved to the store
	h, router := newTestAPI(t)
	if err := h.loadSteakhouseMonthScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/payouts/calculate", CalculateRequest{
		Year: 2025, Month: 6, Save: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[CalculateResponse](t, rec)
	if resp.ReportID == 0 {
		t.Fatalf("Expected a report ID when save=true")
	}

	// WHEN: Fetching the persisted report
	getRec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/payouts/reports/%d", resp.ReportID), nil)

	// THEN: The stored report matches what the calculation returned
	if getRec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", getRec.Code, getRec.Body.String())
	}
	stored := decodeBody[ReportDTO](t, getRec)
	if stored.Report == nil || !stored.Report.ForecastMet {
		t.Fatalf("Expected stored report with forecast met")
	}
	if len(stored.Report.Payouts) != 3 {
		t.Fatalf("Expected 3 payouts in stored report, got %d", len(stored.Report.Payouts))
	}
}

func TestCalculate_RecordsRun(t *testing.T) {
	// GIVEN: One successful and one failed calculation
	h, router := newTestAPI(t)
	if err := h.loadSteakhouseMonthScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	doJSON(t, router, http.MethodPost, "/api/payouts/calculate", CalculateRequest{Year: 2025, Month: 6})
	doJSON(t, router, http.MethodPost, "/api/payouts/calculate", CalculateRequest{Year: 2025, Month: 7}) // no forecast

	// WHEN: Listing the audit trail
	rec := doJSON(t, router, http.MethodGet, "/api/payouts/runs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	runs := decodeBody[[]RunDTO](t, rec)

	// THEN: Both attempts are recorded, newest first
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].Status != "failed" || runs[1].Status != "success" {
		t.Fatalf("Expected failed then success, got %s then %s", runs[0].Status, runs[1].Status)
	}
	if runs[0].Trigger != "api" {
		t.Fatalf("Expected api trigger, got %s", runs[0].Trigger)
	}
}

// =============================================================================
// CATEGORY CONFIGURATION
// =============================================================================

func TestCreateCategory_InvalidLadder_Returns422(t *testing.T) {
	_, router := newTestAPI(t)

	// Duplicate minimum quantity and a percentage over 100.
	body := map[string]any{
		"id":               "cat-bad",
		"name":             "Broken",
		"aggregation_mode": "PER_ITEM",
		"tiers": []map[string]any{
			{"min_quantity": 5, "bonus_percentage": 10},
			{"min_quantity": 5, "bonus_percentage": 150},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/categories", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	errResp := decodeBody[ErrorResponse](t, rec)
	if !strings.Contains(errResp.Details, "min_quantity") && !strings.Contains(errResp.Details, "duplicate") {
		t.Fatalf("Expected details to name the problem, got %q", errResp.Details)
	}
}

func TestCreateCategory_ThenList(t *testing.T) {
	_, router := newTestAPI(t)

	body := map[string]any{
		"id":               "cat-desserts",
		"name":             "Desserts",
		"aggregation_mode": "PER_CATEGORY",
		"tiers": []map[string]any{
			{"min_quantity": 10, "bonus_percentage": 5},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/categories", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	listRec := doJSON(t, router, http.MethodGet, "/api/categories", nil)
	if listRec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", listRec.Code)
	}
	categories := decodeBody[[]map[string]any](t, listRec)
	if len(categories) != 1 {
		t.Fatalf("Expected 1 category, got %d", len(categories))
	}
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

func TestParticipant_CreateAndGet(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/participants", CreateParticipantRequest{
		ID: "p-eve", Name: "Eve", Email: "eve@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	getRec := doJSON(t, router, http.MethodGet, "/api/participants/p-eve", nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", getRec.Code)
	}
	p := decodeBody[ParticipantDTO](t, getRec)
	if p.Name != "Eve" {
		t.Fatalf("Expected Eve, got %s", p.Name)
	}
}

func TestParticipant_GetMissing_Returns404(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/participants/p-nobody", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

// =============================================================================
// CSV IMPORT
// =============================================================================

func TestImportReceipts_EndToEnd(t *testing.T) {
	// GIVEN: A configured category and a CSV of sales
	h, router := newTestAPI(t)
	if err := h.loadFreshStartScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	csv := "participant_id,participant_name,product_id,product_name,category_id,price,date\n" +
		"p-alice,Alice,prod-ribeye,Ribeye,cat-steaks,60.00,2025-06-10\n" +
		"p-alice,Alice,prod-ribeye,Ribeye,cat-steaks,bad-price,2025-06-11\n"

	// WHEN: Posting the CSV
	req := httptest.NewRequest(http.MethodPost, "/api/receipts/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// THEN: Valid rows import, invalid rows come back with line numbers
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Imported int `json:"imported"`
		Rejected int `json:"rejected"`
		Errors   []struct {
			Line int `json:"line"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if result.Imported != 1 || result.Rejected != 1 {
		t.Fatalf("Expected 1 imported and 1 rejected, got %d/%d", result.Imported, result.Rejected)
	}
	if len(result.Errors) != 1 || result.Errors[0].Line != 3 {
		t.Fatalf("Expected error on line 3, got %+v", result.Errors)
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestLoadScenario_Unknown_Returns400(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestLoadScenario_ThenReset(t *testing.T) {
	h, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "steakhouse-month"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if h.currentScenario != "steakhouse-month" {
		t.Fatalf("Expected current scenario tracked, got %q", h.currentScenario)
	}

	resetRec := doJSON(t, router, http.MethodPost, "/api/scenarios/reset", nil)
	if resetRec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resetRec.Code)
	}
	if h.currentScenario != "" {
		t.Fatalf("Expected current scenario cleared, got %q", h.currentScenario)
	}

	participants := doJSON(t, router, http.MethodGet, "/api/participants", nil)
	dtos := decodeBody[[]ParticipantDTO](t, participants)
	if len(dtos) != 0 {
		t.Fatalf("Expected empty database after reset, got %d participants", len(dtos))
	}
}
