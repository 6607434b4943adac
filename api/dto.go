/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NOTE:
  The payout report itself (bonus.PayoutReport and friends) already
  carries JSON tags and is returned as-is: it is the engine's public
  output contract, not an internal model.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/category.go: CategoryJSON doubles as the category DTO
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/bonus"
)

// =============================================================================
// PARTICIPANTS / PRODUCTS
// =============================================================================

// ParticipantDTO represents a staff member in API responses.
type ParticipantDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateParticipantRequest is the request to create or update a participant.
type CreateParticipantRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ProductDTO represents a sellable item in API responses.
type ProductDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

// CreateProductRequest is the request to create or update a product.
type CreateProductRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

// =============================================================================
// FORECASTS
// =============================================================================

// ForecastDTO represents a monthly revenue forecast.
type ForecastDTO struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Threshold    decimal.Decimal `json:"threshold"`
}

// =============================================================================
// RECEIPTS
// =============================================================================

// ReceiptRow is one sale in a JSON batch upload.
type ReceiptRow struct {
	ParticipantID string          `json:"participant_id"`
	ProductID     string          `json:"product_id"`
	Price         decimal.Decimal `json:"price"`
	Date          string          `json:"date"` // YYYY-MM-DD
}

// CreateReceiptsRequest is a JSON batch of receipts.
type CreateReceiptsRequest struct {
	Receipts []ReceiptRow `json:"receipts"`
}

// =============================================================================
// PAYOUT CALCULATION
// =============================================================================

// CalculateRequest triggers a payout calculation for one month.
// TotalRevenue is optional: when omitted, actual revenue is computed from
// the stored receipts for the period.
type CalculateRequest struct {
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	TotalRevenue *decimal.Decimal `json:"total_revenue,omitempty"`
	Save         bool             `json:"save,omitempty"`
}

// CalculateResponse wraps the report with the persisted ID when saved.
type CalculateResponse struct {
	ReportID int64               `json:"report_id,omitempty"`
	Report   *bonus.PayoutReport `json:"report"`
}

// ReportDTO is a persisted report list entry.
type ReportDTO struct {
	ID        int64               `json:"id"`
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	CreatedAt string              `json:"created_at"`
	Report    *bonus.PayoutReport `json:"report,omitempty"`
}

// RunDTO is one scheduler/API calculation run for the audit trail.
type RunDTO struct {
	ID      int64  `json:"id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Trigger string `json:"trigger"`
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
	RanAt   string `json:"ran_at"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
