package backend

import (
	"context"
	"fmt"
	"log/slog"

	"milksync/internal/core"
	applog "milksync/internal/log"
	"milksync/internal/sheets"
	gsheet "milksync/internal/sheets/google"
	"milksync/internal/sheets/memory"
	"milksync/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(applog.FieldComponent, applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	creds, err := gsheet.LoadCredentials(ctx, gsheet.CredentialsSource{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	// One token source serves both the Sheets client and the token endpoint.
	ts, err := gsheet.TokenSource(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("create token source: %w", err)
	}

	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:     config.GoogleSpreadsheetID,
		RequestsPerSecond: config.RequestsPerSecond,
		Burst:             config.Burst,
	}, ts)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend")

	return &BackendResult{
		Client: cli,
		Tokens: gsheet.NewTokenIssuer(ts),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewSheetStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Client:  store,
		Tokens:  unavailableIssuer{backend: SQLiteBackend},
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	f.logger.InfoContext(ctx, "Initialized memory backend")

	return &BackendResult{
		Client: memory.New(),
		Tokens: unavailableIssuer{backend: MemoryBackend},
	}, nil
}

// unavailableIssuer stands in for the token issuer on backends that have no
// Google credentials.
type unavailableIssuer struct {
	backend BackendType
}

func (u unavailableIssuer) AccessToken(context.Context) (sheets.Token, error) {
	return sheets.Token{}, fmt.Errorf("%w: access tokens are not available with the %s backend", core.ErrAuth, u.backend)
}
