/*
Package ingest imports historical sales receipts from CSV exports.

PURPOSE:
  Point-of-sale systems export monthly sales as CSV. This package parses
  those exports, validates each row, upserts the referenced participants
  and products, and appends the receipts to the store. The bonus engine
  never sees a CSV; it only ever receives the clean Receipt shape.

CSV FORMAT (header required, column order fixed):
  participant_id,participant_name,product_id,product_name,category_id,price,date

  price: decimal string, non-negative (e.g. "12.50")
  date:  YYYY-MM-DD

ERROR HANDLING:
  A malformed row never aborts the import: rows are validated
  independently, failures are collected with their line numbers, and only
  the valid rows are written - in one atomic batch, so a storage failure
  leaves nothing half-imported.
*/
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/bonus"
	"github.com/Imani-Maua/TopShelf/store/sqlite"
)

// =============================================================================
// IMPORTER
// =============================================================================

// Importer reads receipt CSVs into the store.
type Importer struct {
	Store *sqlite.Store
}

// NewImporter creates an importer backed by the given store.
func NewImporter(store *sqlite.Store) *Importer {
	return &Importer{Store: store}
}

// RowError describes one rejected CSV row.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Result summarizes an import.
type Result struct {
	Imported int        `json:"imported"`
	Rejected int        `json:"rejected"`
	Errors   []RowError `json:"errors,omitempty"`
}

const columnCount = 7

// Import parses the CSV stream and persists all valid rows.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = columnCount
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV: header row is required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	result := &Result{}
	var receipts []bonus.Receipt
	participants := make(map[string]sqlite.Participant)
	products := make(map[string]sqlite.Product)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		receipt, err := parseRow(record)
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		participants[string(receipt.ParticipantID)] = sqlite.Participant{
			ID:   string(receipt.ParticipantID),
			Name: receipt.ParticipantName,
		}
		products[string(receipt.ProductID)] = sqlite.Product{
			ID:         string(receipt.ProductID),
			Name:       receipt.ProductName,
			CategoryID: string(receipt.CategoryID),
		}
		receipts = append(receipts, receipt)
	}

	for _, p := range participants {
		if err := im.Store.SaveParticipant(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to save participant %s: %w", p.ID, err)
		}
	}
	for _, p := range products {
		if err := im.Store.SaveProduct(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
	}
	if len(receipts) > 0 {
		if err := im.Store.InsertReceipts(ctx, receipts); err != nil {
			return nil, fmt.Errorf("failed to insert receipts: %w", err)
		}
	}

	result.Imported = len(receipts)
	return result, nil
}

// =============================================================================
// ROW PARSING
// =============================================================================

var expectedHeader = []string{
	"participant_id", "participant_name", "product_id",
	"product_name", "category_id", "price", "date",
}

func validateHeader(header []string) error {
	for i, want := range expectedHeader {
		if i >= len(header) || header[i] != want {
			return fmt.Errorf("unexpected CSV header: want columns %v", expectedHeader)
		}
	}
	return nil
}

func parseRow(record []string) (bonus.Receipt, error) {
	var r bonus.Receipt

	for i, field := range record[:5] {
		if field == "" {
			return r, fmt.Errorf("column %s is empty", expectedHeader[i])
		}
	}

	price, err := decimal.NewFromString(record[5])
	if err != nil {
		return r, fmt.Errorf("invalid price %q", record[5])
	}
	if price.IsNegative() {
		return r, fmt.Errorf("negative price %q", record[5])
	}

	date, err := time.Parse("2006-01-02", record[6])
	if err != nil {
		return r, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", record[6])
	}

	return bonus.Receipt{
		ParticipantID:   bonus.ParticipantID(record[0]),
		ParticipantName: record[1],
		ProductID:       bonus.ProductID(record[2]),
		ProductName:     record[3],
		CategoryID:      bonus.CategoryID(record[4]),
		Price:           price,
		Date:            date,
	}, nil
}
