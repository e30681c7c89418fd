package services

import (
	"context"
	"fmt"
	"log/slog"

	"milksync/internal/core"
	applog "milksync/internal/log"
	"milksync/internal/sheets"
)

// SummaryQuery selects deliveries of one calendar month, optionally for a
// single customer. Month is 1-based. MatchNone marks a query whose values
// were provided but can never match a row, such as month "13" or customer
// "abc"; it still reads the sheet and returns no rows.
type SummaryQuery struct {
	Month      int
	Year       int
	CustomerID *int
	MatchNone  bool
}

// NewSummaryQuery builds a query from loosely typed request values. Month
// and year are required; blank values (absent, null, "", 0, false) count as
// missing. Provided values that do not read as numbers are not an error.
func NewSummaryQuery(month, year, customerID any) (SummaryQuery, error) {
	if core.IsBlank(month) || core.IsBlank(year) {
		return SummaryQuery{}, fmt.Errorf("%w: month and year are required", core.ErrValidation)
	}
	var q SummaryQuery
	m, mok := core.ParseLooseInt(month)
	y, yok := core.ParseLooseInt(year)
	if !mok || !yok || m < 1 || m > 12 || y == 0 {
		q.MatchNone = true
	}
	q.Month, q.Year = m, y
	if !core.IsBlank(customerID) {
		id, ok := core.ParseLooseInt(customerID)
		if !ok {
			q.MatchNone = true
		}
		q.CustomerID = &id
	}
	return q, nil
}

// SummaryService reads deliveries back out of the sheet.
type SummaryService struct {
	client sheets.SpreadsheetClient
	layout Layout
}

func NewSummaryService(client sheets.SpreadsheetClient, layout Layout) *SummaryService {
	return &SummaryService{client: client, layout: layout}
}

// FetchSummaries reads every delivery row in one call and returns those
// matching q, in sheet order. No match is an empty, non-nil result.
func (s *SummaryService) FetchSummaries(ctx context.Context, q SummaryQuery) ([]core.SheetRow, error) {
	if !q.MatchNone && (q.Month == 0 || q.Year == 0) {
		return nil, fmt.Errorf("%w: month and year are required", core.ErrValidation)
	}

	dataRange := s.layout.DataRange()
	rows, err := s.client.ReadRange(ctx, dataRange)
	if err != nil {
		slog.ErrorContext(ctx, "Delivery read failed",
			applog.FieldComponent, applog.ComponentSummary,
			applog.FieldOperation, applog.OpFetch,
			applog.FieldSheetsRange, dataRange,
			applog.FieldError, err)
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrFetch, dataRange, err)
	}

	out := FilterRows(rows, s.layout.Schema, q, func(i int, row core.SheetRow, err error) {
		slog.WarnContext(ctx, "Skipping row with invalid date",
			applog.FieldComponent, applog.ComponentSummary,
			"row_index", i,
			applog.FieldError, err)
	})

	fields := applog.NewFields().
		WithComponent(applog.ComponentSummary).
		WithOperation(applog.OpFetch).
		WithPeriod(q.Month, q.Year)
	fields[applog.FieldRowCount] = len(rows)
	fields["matched"] = len(out)
	if q.CustomerID != nil {
		fields[applog.FieldCustomerID] = *q.CustomerID
	}
	if len(out) == 0 {
		slog.WarnContext(ctx, "No deliveries matched", fields.ToSlice()...)
	} else {
		slog.InfoContext(ctx, "Deliveries fetched", fields.ToSlice()...)
	}
	return out, nil
}

// FilterRows keeps the rows whose date falls in q's month and year and, when
// q names a customer, whose customer id matches. Rows with an unreadable
// date never match; invalid is told about each of them and may be nil.
// The result preserves input order and is never nil.
func FilterRows(rows []core.SheetRow, schema core.Schema, q SummaryQuery, invalid func(i int, row core.SheetRow, err error)) []core.SheetRow {
	out := make([]core.SheetRow, 0)
	if q.MatchNone {
		return out
	}
	for i, row := range rows {
		date := core.ParseDeliveryDate(schema.Cell(row, core.ColDate))
		if !date.Valid() {
			if invalid != nil {
				invalid(i, row, date.Err)
			}
			continue
		}
		if int(date.Month) != q.Month || date.Year != q.Year {
			continue
		}
		if q.CustomerID != nil {
			id, ok := core.ParseLooseInt(schema.Cell(row, core.ColCustomerID))
			if !ok || id != *q.CustomerID {
				continue
			}
		}
		out = append(out, row)
	}
	return out
}
