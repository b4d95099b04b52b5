// Package importer turns spreadsheet rows into schools, students and
// subjects. Every row is validated on its own and staged inside a savepoint,
// so one bad row is reported and skipped without aborting the file.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/spreadsheet"
)

// RowErrorKind classifies why a row was skipped
type RowErrorKind string

const (
	RowBlank               RowErrorKind = "blank"
	RowInvalid             RowErrorKind = "invalid"
	RowDuplicate           RowErrorKind = "duplicate"
	RowConstraintViolation RowErrorKind = "constraint_violation"
)

// RowError is a skipped row. Row is the 1-based spreadsheet row number.
type RowError struct {
	Row     int          `json:"row"`
	Kind    RowErrorKind `json:"kind"`
	Message string       `json:"message"`
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

func blankRow(row int, msg string) *RowError {
	return &RowError{Row: row, Kind: RowBlank, Message: msg}
}

func invalidRow(row int, format string, args ...interface{}) *RowError {
	return &RowError{Row: row, Kind: RowInvalid, Message: fmt.Sprintf(format, args...)}
}

func duplicateRow(row int, format string, args ...interface{}) *RowError {
	return &RowError{Row: row, Kind: RowDuplicate, Message: fmt.Sprintf(format, args...)}
}

// Report summarizes an import
type Report struct {
	Added    int         `json:"added"`
	Skipped  int         `json:"skipped"`
	Errors   []string    `json:"errors"`
	Failures []*RowError `json:"-"`
}

func newReport() *Report {
	return &Report{Errors: []string{}}
}

func (r *Report) skip(e *RowError) {
	r.Skipped++
	r.Errors = append(r.Errors, e.Error())
	r.Failures = append(r.Failures, e)
}

// FormatError is a file-level problem; nothing was written
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

// MissingColumnsError builds the error for a header lacking required columns
func MissingColumnsError(required []string) *FormatError {
	return &FormatError{
		Message: fmt.Sprintf("Invalid file format. Missing one or more required columns: [%s]", strings.Join(required, ", ")),
	}
}

// ReadError wraps a workbook that could not be parsed
func ReadError(err error) *FormatError {
	return &FormatError{Message: fmt.Sprintf("Could not read Excel file. Error: %v", err)}
}

// Record is one data row of the sheet
type Record struct {
	Index int
	sheet *spreadsheet.Sheet
}

// Row is the row number shown to users, accounting for the header
func (r Record) Row() int {
	return r.Index + 2
}

// Get returns a trimmed cell
func (r Record) Get(column string) string {
	return r.sheet.Cell(r.Index, column)
}

// AnyBlank reports whether one of columns is empty
func (r Record) AnyBlank(columns []string) bool {
	for _, c := range columns {
		if r.Get(c) == "" {
			return true
		}
	}
	return false
}

// Flow is one kind of import
type Flow interface {
	// Columns lists the required header names
	Columns() []string
	// Prepare loads existing uniqueness keys once, before any row
	Prepare(ctx context.Context, tx *repositories.Store) error
	// Validate checks a row against the existing and in-file keys
	Validate(rec Record) *RowError
	// Stage writes the row's entities
	Stage(ctx context.Context, tx *repositories.Store, rec Record) error
	// Accept records the keys of a staged row
	Accept(rec Record)
	// Finish runs after the last row, before commit
	Finish(ctx context.Context, tx *repositories.Store) error
}

// Run imports sheet through flow. tx must be transactional for row failures
// to be isolated; the caller owns the commit.
func Run(ctx context.Context, tx *repositories.Store, sheet *spreadsheet.Sheet, flow Flow, log zerolog.Logger) (*Report, error) {
	if missing := sheet.Missing(flow.Columns()); len(missing) > 0 {
		return nil, MissingColumnsError(flow.Columns())
	}

	if err := flow.Prepare(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to load existing records: %w", err)
	}

	report := newReport()
	for i := range sheet.Rows {
		rec := Record{Index: i, sheet: sheet}

		if rowErr := flow.Validate(rec); rowErr != nil {
			report.skip(rowErr)
			continue
		}

		err := tx.Savepoint(ctx, func(ctx context.Context) error {
			return flow.Stage(ctx, tx, rec)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Int("row", rec.Row()).Msg("Row rolled back")
			report.skip(&RowError{Row: rec.Row(), Kind: RowConstraintViolation, Message: err.Error()})
			continue
		}

		flow.Accept(rec)
		report.Added++
	}

	if err := flow.Finish(ctx, tx); err != nil {
		return nil, err
	}

	log.Info().Int("added", report.Added).Int("skipped", report.Skipped).Msg("Import staged")
	return report, nil
}

type keySet map[string]struct{}

func (s keySet) has(k string) bool {
	_, ok := s[k]
	return ok
}

func (s keySet) add(k string) {
	s[k] = struct{}{}
}
