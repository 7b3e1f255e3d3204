// Package sheets reads sponsor applications from a spreadsheet and writes
// research results back to them.
package sheets

import (
	"context"
	"fmt"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

// Gateway is the spreadsheet surface the grading pipeline needs. Calls never
// retry internally; every communication failure is returned as *GatewayError.
type Gateway interface {
	// Header returns the header row (row 1)
	Header(ctx context.Context) ([]string, error)

	// ListAllRecords returns every data row that has a Timestamp and Company Name
	ListAllRecords(ctx context.Context) ([]model.SponsorRecord, error)

	// ListUnprocessedRecords returns the rows with empty Research Notes and Decision
	ListUnprocessedRecords(ctx context.Context) ([]model.SponsorRecord, error)

	// UpdateRecord writes each field to the column with the same header.
	// Unknown columns are skipped with a warning.
	UpdateRecord(ctx context.Context, row int, fields map[string]string) error

	// EnsureColumns appends missing headers to the end of the header row
	EnsureColumns(ctx context.Context, names []string) error

	// RecordAt returns a single row as a record
	RecordAt(ctx context.Context, row int) (model.SponsorRecord, error)
}

// GatewayError wraps a spreadsheet communication failure
type GatewayError struct {
	Op  string // connect, header, list, update, ensure_columns, get_row
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("sheets %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func gatewayErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &GatewayError{Op: op, Err: err}
}
