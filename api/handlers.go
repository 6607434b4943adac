/*
handlers.go - HTTP API handlers for the bonus payout system

PURPOSE:
  Exposes the bonus calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Participants:
    GET    /api/participants           List all participants
    POST   /api/participants           Create participant
    GET    /api/participants/{id}      Get participant details

  Products:
    GET    /api/products               List all products
    POST   /api/products               Create product

  Categories:
    GET    /api/categories             List categories with tier ladders
    POST   /api/categories             Create category from JSON config
    GET    /api/categories/{id}        Get one category
    DELETE /api/categories/{id}        Delete category

  Receipts:
    POST   /api/receipts               JSON batch of receipts
    POST   /api/receipts/import        CSV import (text/csv body)

  Forecasts:
    GET    /api/forecasts              Get forecast (?year=&month=)
    POST   /api/forecasts              Save forecast

  Payouts:
    POST   /api/payouts/calculate      Run calculation for a month
    GET    /api/payouts/reports        List persisted reports
    GET    /api/payouts/reports/{id}   Get one persisted report
    GET    /api/payouts/runs           Calculation run audit trail

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario
    POST   /api/scenarios/reset        Wipe the database

ERROR HANDLING:
  Domain errors map to HTTP status via the bonus package predicates:
  - bonus.IsNotFound       -> 404
  - bonus.IsConfiguration  -> 422 (bad tier/category config)
  - bonus.IsClientError    -> 400
  - anything else          -> 500

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/bonus"
	"github.com/Imani-Maua/TopShelf/factory"
	"github.com/Imani-Maua/TopShelf/ingest"
	"github.com/Imani-Maua/TopShelf/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store           *sqlite.Store
	CategoryFactory *factory.CategoryFactory
	Importer        *ingest.Importer

	orchestrator bonus.Orchestrator

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:           store,
		CategoryFactory: factory.NewCategoryFactory(),
		Importer:        ingest.NewImporter(store),
	}
}

// =============================================================================
// PARTICIPANT HANDLERS
// =============================================================================

// ListParticipants returns all participants.
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.Store.ListParticipants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list participants", err)
		return
	}

	dtos := make([]ParticipantDTO, len(participants))
	for i, p := range participants {
		dtos[i] = toParticipantDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetParticipant returns one participant by ID.
func (h *Handler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.Store.GetParticipant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get participant", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Participant not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantDTO(*p))
}

// CreateParticipant creates or updates a participant.
func (h *Handler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req CreateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	p := sqlite.Participant{ID: req.ID, Name: req.Name, Email: req.Email}
	if err := h.Store.SaveParticipant(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save participant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toParticipantDTO(p))
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns all products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = ProductDTO{ID: p.ID, Name: p.Name, CategoryID: p.CategoryID}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct creates or updates a product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" || req.CategoryID == "" {
		writeError(w, http.StatusBadRequest, "id, name and category_id are required", nil)
		return
	}

	// Product categories must exist before products reference them.
	cat, err := h.Store.GetCategory(r.Context(), bonus.CategoryID(req.CategoryID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check category", err)
		return
	}
	if cat == nil {
		writeError(w, http.StatusNotFound, "Category not found: "+req.CategoryID, nil)
		return
	}

	p := sqlite.Product{ID: req.ID, Name: req.Name, CategoryID: req.CategoryID}
	if err := h.Store.SaveProduct(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save product", err)
		return
	}
	writeJSON(w, http.StatusCreated, ProductDTO{ID: p.ID, Name: p.Name, CategoryID: p.CategoryID})
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns all configured categories with their tier ladders.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	dtos := make([]factory.CategoryJSON, len(categories))
	for i, c := range categories {
		dtos[i] = h.CategoryFactory.ToJSON(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCategory returns one category by ID.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := bonus.CategoryID(chi.URLParam(r, "id"))
	c, err := h.Store.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get category", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Category not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.CategoryFactory.ToJSON(*c))
}

// CreateCategory creates a category from its JSON configuration. Invalid
// tier ladders are rejected with the full list of problems.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var cj factory.CategoryJSON
	if err := json.NewDecoder(r.Body).Decode(&cj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category, err := h.CategoryFactory.FromJSON(cj)
	if err != nil {
		writeDomainError(w, "Invalid category configuration", err)
		return
	}

	if err := h.Store.SaveCategory(r.Context(), *category); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save category", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.CategoryFactory.ToJSON(*category))
}

// DeleteCategory removes a category and its tiers.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := bonus.CategoryID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECEIPT HANDLERS
// =============================================================================

// CreateReceipts ingests a JSON batch of receipts. Participant and product
// IDs must already exist; product names and categories are resolved from
// the catalog at calculation time, so only the sale itself is recorded.
func (h *Handler) CreateReceipts(w http.ResponseWriter, r *http.Request) {
	var req CreateReceiptsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Receipts) == 0 {
		writeError(w, http.StatusBadRequest, "receipts must not be empty", nil)
		return
	}

	receipts := make([]bonus.Receipt, 0, len(req.Receipts))
	for i, row := range req.Receipts {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("receipt %d: invalid date %q (use YYYY-MM-DD)", i, row.Date), nil)
			return
		}
		if !row.Price.IsPositive() {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("receipt %d: price must be positive", i), nil)
			return
		}
		receipts = append(receipts, bonus.Receipt{
			ParticipantID: bonus.ParticipantID(row.ParticipantID),
			ProductID:     bonus.ProductID(row.ProductID),
			Price:         row.Price,
			Date:          date,
		})
	}

	if err := h.Store.InsertReceipts(r.Context(), receipts); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save receipts", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"inserted": len(receipts)})
}

// ImportReceipts ingests a CSV stream of receipts. Rows are validated
// individually; valid rows are committed as one batch and rejected rows are
// reported back with line numbers.
func (h *Handler) ImportReceipts(w http.ResponseWriter, r *http.Request) {
	result, err := h.Importer.Import(r.Context(), r.Body)
	if err != nil {
		writeDomainError(w, "CSV import failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// FORECAST HANDLERS
// =============================================================================

// GetForecast returns the forecast for ?year=&month=.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriod(w, r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if !ok {
		return
	}

	f, err := h.Store.GetForecast(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get forecast", err)
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("No forecast for %d-%02d", year, int(month)), nil)
		return
	}
	writeJSON(w, http.StatusOK, toForecastDTO(*f))
}

// SaveForecast creates or replaces the forecast for one month.
func (h *Handler) SaveForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12", nil)
		return
	}

	f := bonus.Forecast{
		Year:         req.Year,
		Month:        time.Month(req.Month),
		TargetAmount: req.TargetAmount,
		Threshold:    req.Threshold,
	}
	if err := bonus.ValidateForecast(f); err != nil {
		writeDomainError(w, "Invalid forecast", err)
		return
	}

	if err := h.Store.SaveForecast(r.Context(), f); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save forecast", err)
		return
	}
	writeJSON(w, http.StatusCreated, toForecastDTO(f))
}

// =============================================================================
// PAYOUT HANDLERS
// =============================================================================

// Calculate runs the payout calculation for one month and optionally
// persists the resulting report.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12", nil)
		return
	}
	if req.Year < 2000 || req.Year > 2200 {
		writeError(w, http.StatusBadRequest, "year is out of range", nil)
		return
	}

	report, reportID, err := h.RunCalculation(
		r.Context(), req.Year, time.Month(req.Month), req.TotalRevenue, req.Save, "api")
	if err != nil {
		writeDomainError(w, "Calculation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, CalculateResponse{ReportID: reportID, Report: report})
}

// RunCalculation assembles the calculation input from the store, runs the
// orchestrator, and optionally persists the report. It is shared between the
// API handler and the monthly scheduler; trigger tags the audit record.
func (h *Handler) RunCalculation(ctx context.Context, year int, month time.Month, totalRevenue *decimal.Decimal, save bool, trigger string) (*bonus.PayoutReport, int64, error) {
	categories, err := h.Store.ListCategories(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("loading categories: %w", err)
	}
	receipts, err := h.Store.ReceiptsForPeriod(ctx, year, month)
	if err != nil {
		return nil, 0, fmt.Errorf("loading receipts: %w", err)
	}
	forecast, err := h.Store.GetForecast(ctx, year, month)
	if err != nil {
		return nil, 0, fmt.Errorf("loading forecast: %w", err)
	}

	// When the caller does not supply total revenue, fall back to the sum
	// of stored receipts for the period. Real deployments supply the house
	// total, which includes non-bonus sales.
	if totalRevenue == nil {
		actual, err := h.Store.TotalRevenueForPeriod(ctx, year, month)
		if err != nil {
			return nil, 0, fmt.Errorf("computing revenue: %w", err)
		}
		totalRevenue = &actual
	}

	report, err := h.orchestrator.Calculate(bonus.CalculationInput{
		Receipts:     receipts,
		Categories:   categories,
		Forecast:     forecast,
		TotalRevenue: totalRevenue,
	})

	status, detail := "success", ""
	if err != nil {
		status, detail = "failed", err.Error()
	}
	if runErr := h.Store.RecordRun(ctx, sqlite.CalculationRun{
		Year:    year,
		Month:   month,
		Trigger: trigger,
		Status:  status,
		Detail:  detail,
		RanAt:   time.Now().UTC(),
	}); runErr != nil {
		// The calculation outcome matters more than the audit row.
		fmt.Printf("[API] Warning: failed to record calculation run: %v\n", runErr)
	}
	if err != nil {
		return nil, 0, err
	}

	var reportID int64
	if save {
		raw, err := json.Marshal(report)
		if err != nil {
			return nil, 0, fmt.Errorf("serializing report: %w", err)
		}
		reportID, err = h.Store.SaveReport(ctx, year, month, string(raw))
		if err != nil {
			return nil, 0, fmt.Errorf("saving report: %w", err)
		}
	}
	return report, reportID, nil
}

// ListReports returns all persisted payout reports, newest first, without
// the full report bodies.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListReports(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reports", err)
		return
	}

	dtos := make([]ReportDTO, len(records))
	for i, rec := range records {
		dtos[i] = ReportDTO{
			ID:        rec.ID,
			Year:      rec.Year,
			Month:     int(rec.Month),
			CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReport returns one persisted report including its full body.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report ID", err)
		return
	}

	rec, err := h.Store.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get report", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Report not found", nil)
		return
	}

	var report bonus.PayoutReport
	if err := json.Unmarshal([]byte(rec.JSON), &report); err != nil {
		writeError(w, http.StatusInternalServerError, "Stored report is corrupt", err)
		return
	}
	writeJSON(w, http.StatusOK, ReportDTO{
		ID:        rec.ID,
		Year:      rec.Year,
		Month:     int(rec.Month),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		Report:    &report,
	})
}

// ListRuns returns the calculation run audit trail, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = RunDTO{
			ID:      run.ID,
			Year:    run.Year,
			Month:   int(run.Month),
			Trigger: run.Trigger,
			Status:  run.Status,
			Detail:  run.Detail,
			RanAt:   run.RanAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func toParticipantDTO(p sqlite.Participant) ParticipantDTO {
	dto := ParticipantDTO{ID: p.ID, Name: p.Name, Email: p.Email}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toForecastDTO(f bonus.Forecast) ForecastDTO {
	return ForecastDTO{
		Year:         f.Year,
		Month:        int(f.Month),
		TargetAmount: f.TargetAmount,
		Threshold:    f.Threshold,
	}
}

// parsePeriod parses year/month query parameters, writing the error response
// itself when they are missing or malformed.
func parsePeriod(w http.ResponseWriter, yearStr, monthStr string) (int, time.Month, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing year parameter", nil)
		return 0, 0, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid or missing month parameter", nil)
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// writeDomainError maps bonus package errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case bonus.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case bonus.IsConfiguration(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	case bonus.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
