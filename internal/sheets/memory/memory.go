package memory

import (
	"context"
	"fmt"
	"sync"

	"milksync/internal/core"
	"milksync/internal/sheets"
)

var _ sheets.SpreadsheetClient = (*Store)(nil)

// Store is an in-process spreadsheet. Each sheet is a grid of rows; row 1 is
// grid[0].
type Store struct {
	mu    sync.Mutex
	grids map[string][]core.SheetRow
	calls Calls
}

// Calls counts operations per kind.
type Calls struct {
	Writes  int
	Appends int
	Reads   int
}

func New() *Store {
	return &Store{grids: map[string][]core.SheetRow{}}
}

// Seed replaces the contents of sheet with rows, starting at row 1.
func (s *Store) Seed(sheet string, rows ...core.SheetRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid := make([]core.SheetRow, len(rows))
	for i, r := range rows {
		grid[i] = append(core.SheetRow(nil), r...)
	}
	s.grids[sheet] = grid
}

// Calls returns how many operations have been served.
func (s *Store) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// WriteRange overwrites the cells addressed by rng.
func (s *Store) WriteRange(_ context.Context, rng string, values []core.SheetRow) error {
	r, err := sheets.ParseRange(rng)
	if err != nil {
		return err
	}
	if err := sheets.CheckFits(r, values); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Writes++
	s.put(r.Sheet, r.StartRow, r.StartCol, values)
	return nil
}

// AppendRows adds values below the last row of the sheet, never above the
// first row of rng.
func (s *Store) AppendRows(_ context.Context, rng string, values []core.SheetRow) error {
	r, err := sheets.ParseRange(rng)
	if err != nil {
		return err
	}
	if err := sheets.CheckFits(sheets.Range{Sheet: r.Sheet, StartCol: r.StartCol, StartRow: 1, EndCol: r.EndCol}, values); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Appends++
	next := len(s.grids[r.Sheet]) + 1
	if next < r.StartRow {
		next = r.StartRow
	}
	s.put(r.Sheet, next, r.StartCol, values)
	return nil
}

// ReadRange returns copies of the rows addressed by rng.
func (s *Store) ReadRange(_ context.Context, rng string) ([]core.SheetRow, error) {
	r, err := sheets.ParseRange(rng)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Reads++

	grid := s.grids[r.Sheet]
	last := len(grid)
	if r.EndRow > 0 && r.EndRow < last {
		last = r.EndRow
	}
	var out []core.SheetRow
	for n := r.StartRow; n <= last; n++ {
		row := sheets.Window(grid[n-1], r)
		out = append(out, append(core.SheetRow(nil), row...))
	}
	return sheets.TrimRows(out), nil
}

// put must be called with mu held.
func (s *Store) put(sheet string, startRow, startCol int, values []core.SheetRow) {
	grid := s.grids[sheet]
	for len(grid) < startRow-1+len(values) {
		grid = append(grid, nil)
	}
	for i, v := range values {
		grid[startRow-1+i] = sheets.PlaceCells(grid[startRow-1+i], startCol, v)
	}
	s.grids[sheet] = grid
}

func (c Calls) String() string {
	return fmt.Sprintf("writes=%d appends=%d reads=%d", c.Writes, c.Appends, c.Reads)
}
