package core

// Column names of the deliveries sheet, in sheet order.
const (
	ColCustomerID   = "CustomerID"
	ColCustomerName = "Customer Name"
	ColDate         = "Date"
	ColMilkType     = "Milk Type"
	ColQuantity     = "Quantity"
	ColMilkRate     = "Milk Rate"
	ColMilkTotal    = "Milk Total"
)

type (
	// DeliveryRecord is a single delivery as submitted by the app. Every
	// field is optional and holds the decoded JSON value as sent; an absent
	// or null field becomes an empty cell. Values are not coerced.
	DeliveryRecord struct {
		CustomerID   any `json:"customerID"`
		CustomerName any `json:"customerName"`
		Date         any `json:"date"`
		MilkType     any `json:"milkType"`
		Quantity     any `json:"quantity"`
		MilkRate     any `json:"milkRate"`
		MilkTotal    any `json:"milkTotal"`
	}

	// SheetRow is one row of cell values, positionally aligned to a Schema.
	SheetRow []any
)

// Cells returns the record's values keyed by column name. Absent fields map to nil.
func (d DeliveryRecord) Cells() map[string]any {
	return map[string]any{
		ColCustomerID:   d.CustomerID,
		ColCustomerName: d.CustomerName,
		ColDate:         d.Date,
		ColMilkType:     d.MilkType,
		ColQuantity:     d.Quantity,
		ColMilkRate:     d.MilkRate,
		ColMilkTotal:    d.MilkTotal,
	}
}

// Normalize converts a record into a row laid out by schema. Columns the
// record does not know stay empty.
func Normalize(schema Schema, d DeliveryRecord) SheetRow {
	return schema.Row(d.Cells())
}
