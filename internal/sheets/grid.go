package sheets

import "milksync/internal/core"

// Helpers shared by the adapters that emulate a spreadsheet locally.

// PlaceCells writes values into row starting at column startCol (1-based),
// growing the row as needed, and returns the result.
func PlaceCells(row core.SheetRow, startCol int, values core.SheetRow) core.SheetRow {
	need := startCol - 1 + len(values)
	if len(row) < need {
		grown := make(core.SheetRow, need)
		copy(grown, row)
		row = grown
	}
	copy(row[startCol-1:], values)
	return row
}

// Window cuts the columns of r out of row and drops trailing empty cells,
// the way the Sheets API returns values.
func Window(row core.SheetRow, r Range) core.SheetRow {
	out := core.SheetRow{}
	for c := r.StartCol; c <= r.EndCol && c <= len(row); c++ {
		out = append(out, row[c-1])
	}
	return TrimRow(out)
}

// TrimRow drops trailing nil cells.
func TrimRow(row core.SheetRow) core.SheetRow {
	end := len(row)
	for end > 0 && row[end-1] == nil {
		end--
	}
	return row[:end]
}

// TrimRows drops trailing empty rows.
func TrimRows(rows []core.SheetRow) []core.SheetRow {
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}

// CheckFits verifies values fit inside the bounds of r.
func CheckFits(r Range, values []core.SheetRow) error {
	for i, row := range values {
		if len(row) > r.Width() {
			return &RangeError{Range: r, Reason: "row wider than range", Row: i}
		}
	}
	if r.EndRow > 0 && r.StartRow+len(values)-1 > r.EndRow {
		return &RangeError{Range: r, Reason: "more rows than range", Row: len(values) - 1}
	}
	return nil
}

// RangeError reports values that do not fit the addressed range.
type RangeError struct {
	Range  Range
	Reason string
	Row    int
}

func (e *RangeError) Error() string {
	return e.Range.String() + ": " + e.Reason
}
