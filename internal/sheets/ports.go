package sheets

import (
	"context"
	"time"

	"milksync/internal/core"
)

// Ports for outbound adapters.
type (
	// SpreadsheetClient reads and writes rectangular ranges addressed in A1
	// notation, e.g. "Sheet1!A2:G".
	SpreadsheetClient interface {
		// WriteRange overwrites the cells of rng with values.
		WriteRange(ctx context.Context, rng string, values []core.SheetRow) error
		// AppendRows inserts values as new rows after the data in the table
		// that rng addresses.
		AppendRows(ctx context.Context, rng string, values []core.SheetRow) error
		// ReadRange returns every row in rng; an empty range yields no rows.
		ReadRange(ctx context.Context, rng string) ([]core.SheetRow, error)
	}

	// TokenIssuer hands out bearer tokens scoped to spreadsheet read/write.
	TokenIssuer interface {
		AccessToken(ctx context.Context) (Token, error)
	}

	Token struct {
		AccessToken string
		TokenType   string
		Expiry      time.Time
	}
)
