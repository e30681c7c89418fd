package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"milksync/internal/core"
)

// Range is a parsed A1 range. Columns and rows are 1-based; an EndRow of 0
// means the range runs to the bottom of the sheet.
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange parses "Sheet!A1:G1", "Sheet!A2:G" or "Sheet!B3". The sheet
// name may be quoted ('My Sheet'!A1:B2).
func ParseRange(s string) (Range, error) {
	bang := strings.LastIndex(s, "!")
	if bang <= 0 || bang == len(s)-1 {
		return Range{}, fmt.Errorf("invalid range %q: want Sheet!A1[:B2]", s)
	}
	sheet := s[:bang]
	if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	r := Range{Sheet: sheet}

	start, end, hasEnd := strings.Cut(s[bang+1:], ":")
	var err error
	r.StartCol, r.StartRow, err = parseCell(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if r.StartRow == 0 {
		r.StartRow = 1
	}
	if !hasEnd {
		r.EndCol, r.EndRow = r.StartCol, r.StartRow
		return r, nil
	}
	r.EndCol, r.EndRow, err = parseCell(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if r.EndCol < r.StartCol || (r.EndRow != 0 && r.EndRow < r.StartRow) {
		return Range{}, fmt.Errorf("invalid range %q: end before start", s)
	}
	return r, nil
}

// Width is the number of columns in the range.
func (r Range) Width() int {
	return r.EndCol - r.StartCol + 1
}

func (r Range) String() string {
	end := ColumnLetter(r.EndCol)
	if r.EndRow > 0 {
		end += strconv.Itoa(r.EndRow)
	}
	return fmt.Sprintf("%s!%s%d:%s", quoteSheet(r.Sheet), ColumnLetter(r.StartCol), r.StartRow, end)
}

func quoteSheet(name string) string {
	if !strings.ContainsAny(name, " '!:") {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// HeaderRange addresses the header row of schema, e.g. "Sheet1!A1:G1".
func HeaderRange(sheet string, schema core.Schema) string {
	return Range{Sheet: sheet, StartCol: 1, StartRow: 1, EndCol: schema.Len(), EndRow: 1}.String()
}

// DataRange addresses every row below the header, e.g. "Sheet1!A2:G".
func DataRange(sheet string, schema core.Schema) string {
	return Range{Sheet: sheet, StartCol: 1, StartRow: 2, EndCol: schema.Len()}.String()
}

// ColumnLetter converts a 1-based column index to its letter (1=A, 27=AA).
func ColumnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func parseCell(s string) (col, row int, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("cell %q has no column", s)
	}
	if i == len(s) {
		return col, 0, nil
	}
	row, err = strconv.Atoi(s[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("cell %q has invalid row", s)
	}
	return col, row, nil
}
