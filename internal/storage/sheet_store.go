package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"milksync/internal/core"
	applog "milksync/internal/log"
	"milksync/internal/sheets"
)

var _ sheets.SpreadsheetClient = (*SheetStore)(nil)

// SheetStore keeps spreadsheet rows in SQLite, one row per (sheet, row_num),
// with the cells of a row stored as a JSON array.
type SheetStore struct {
	db *sql.DB
}

func NewSheetStore(dbPath string) (*SheetStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection makes each append transaction see the latest row.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SheetStore{db: db}, nil
}

func (s *SheetStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WriteRange overwrites the cells addressed by rng, keeping cells outside it.
func (s *SheetStore) WriteRange(ctx context.Context, rng string, values []core.SheetRow) error {
	r, err := sheets.ParseRange(rng)
	if err != nil {
		return err
	}
	if err := sheets.CheckFits(r, values); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i, v := range values {
			rowNum := r.StartRow + i
			existing, err := loadRow(ctx, tx, r.Sheet, rowNum)
			if err != nil {
				return err
			}
			if err := saveRow(ctx, tx, r.Sheet, rowNum, sheets.PlaceCells(existing, r.StartCol, v)); err != nil {
				return err
			}
		}
		slog.DebugContext(ctx, "Range written",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldSheetsRange, rng,
			applog.FieldRowCount, len(values))
		return nil
	})
}

// AppendRows adds values after the last stored row of the sheet, never above
// the first row of rng.
func (s *SheetStore) AppendRows(ctx context.Context, rng string, values []core.SheetRow) error {
	r, err := sheets.ParseRange(rng)
	if err != nil {
		return err
	}
	if err := sheets.CheckFits(sheets.Range{Sheet: r.Sheet, StartCol: r.StartCol, StartRow: 1, EndCol: r.EndCol}, values); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var last int
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(row_num), 0) FROM sheet_rows WHERE sheet = ?`, r.Sheet).Scan(&last)
		if err != nil {
			return fmt.Errorf("find last row: %w", err)
		}
		next := max(last+1, r.StartRow)
		for i, v := range values {
			if err := saveRow(ctx, tx, r.Sheet, next+i, sheets.PlaceCells(nil, r.StartCol, v)); err != nil {
				return err
			}
		}
		slog.DebugContext(ctx, "Rows appended",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldSheetsRange, rng,
			applog.FieldRowCount, len(values),
			"first_row", next)
		return nil
	})
}

// ReadRange returns the rows addressed by rng. Missing rows inside the range
// come back empty; trailing empty rows are dropped.
func (s *SheetStore) ReadRange(ctx context.Context, rng string) ([]core.SheetRow, error) {
	r, err := sheets.ParseRange(rng)
	if err != nil {
		return nil, err
	}

	query := `SELECT row_num, cells FROM sheet_rows WHERE sheet = ? AND row_num >= ?`
	args := []any{r.Sheet, r.StartRow}
	if r.EndRow > 0 {
		query += ` AND row_num <= ?`
		args = append(args, r.EndRow)
	}
	query += ` ORDER BY row_num`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []core.SheetRow
	for rows.Next() {
		var (
			rowNum int
			raw    string
		)
		if err := rows.Scan(&rowNum, &raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", rowNum, err)
		}
		for len(out) < rowNum-r.StartRow {
			out = append(out, core.SheetRow{})
		}
		out = append(out, sheets.Window(cells, r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return sheets.TrimRows(out), nil
}

func (s *SheetStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func loadRow(ctx context.Context, tx *sql.Tx, sheet string, rowNum int) (core.SheetRow, error) {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = ? AND row_num = ?`, sheet, rowNum).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load row %d: %w", rowNum, err)
	}
	return decodeCells(raw)
}

func saveRow(ctx context.Context, tx *sql.Tx, sheet string, rowNum int, cells core.SheetRow) error {
	raw, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("encode row %d: %w", rowNum, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, row_num, cells) VALUES (?, ?, ?)
		ON CONFLICT (sheet, row_num) DO UPDATE SET
			cells = excluded.cells,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		sheet, rowNum, string(raw))
	if err != nil {
		return fmt.Errorf("save row %d: %w", rowNum, err)
	}
	return nil
}

// decodeCells keeps numbers as json.Number so integer ids survive unchanged.
func decodeCells(raw string) (core.SheetRow, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var cells core.SheetRow
	if err := dec.Decode(&cells); err != nil {
		return nil, err
	}
	return cells, nil
}
