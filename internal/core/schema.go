package core

// Schema is the ordered list of column names shared by the code that writes
// rows and the code that reads them back.
type Schema struct {
	columns []string
}

// DeliverySchema is the layout of the deliveries sheet.
var DeliverySchema = NewSchema(
	ColCustomerID,
	ColCustomerName,
	ColDate,
	ColMilkType,
	ColQuantity,
	ColMilkRate,
	ColMilkTotal,
)

func NewSchema(columns ...string) Schema {
	return Schema{columns: append([]string(nil), columns...)}
}

// Len returns the number of columns.
func (s Schema) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the column names.
func (s Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Header returns the header row.
func (s Schema) Header() SheetRow {
	row := make(SheetRow, len(s.columns))
	for i, c := range s.columns {
		row[i] = c
	}
	return row
}

// Row lays values out in column order. Columns with no value get nil.
func (s Schema) Row(values map[string]any) SheetRow {
	row := make(SheetRow, len(s.columns))
	for i, c := range s.columns {
		row[i] = values[c]
	}
	return row
}

// Cell returns the value of the named column in row, or nil when the row is
// too short or the column is unknown. Sheets omits trailing empty cells.
func (s Schema) Cell(row SheetRow, name string) any {
	i := s.Index(name)
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}
