package services

import (
	"milksync/internal/core"
	"milksync/internal/sheets"
)

// Layout says where deliveries live: the sheet name and the column schema
// shared by writing and filtering.
type Layout struct {
	SheetName string
	Schema    core.Schema
}

// DefaultLayout is the Sheet1 deliveries table.
func DefaultLayout() Layout {
	return Layout{SheetName: "Sheet1", Schema: core.DeliverySchema}
}

// HeaderRange addresses the header row.
func (l Layout) HeaderRange() string {
	return sheets.HeaderRange(l.SheetName, l.Schema)
}

// DataRange addresses every row below the header.
func (l Layout) DataRange() string {
	return sheets.DataRange(l.SheetName, l.Schema)
}
