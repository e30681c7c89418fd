package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"

	applog "milksync/internal/log"
)

// Scope is the single OAuth scope this service requests.
const Scope = gsheet.SpreadsheetsScope

// CredentialsSource says where the service account key lives. Inline JSON
// wins over a file path.
type CredentialsSource struct {
	JSON string
	File string
}

// LoadCredentials returns the raw service account key.
func LoadCredentials(ctx context.Context, src CredentialsSource) ([]byte, error) {
	inline := strings.TrimSpace(src.JSON)
	file := strings.TrimSpace(src.File)

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials",
			applog.FieldComponent, applog.ComponentAuth,
			"json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials from file",
			applog.FieldComponent, applog.ComponentAuth,
			"path", file,
			"size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// TokenSource builds a cached token source for the service account key,
// scoped to spreadsheets.
func TokenSource(ctx context.Context, credentialsJSON []byte) (oauth2.TokenSource, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("service account config: %w", err)
	}
	return oauth2.ReuseTokenSource(nil, cfg.TokenSource(ctx)), nil
}
