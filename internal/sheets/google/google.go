package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"milksync/internal/core"
	applog "milksync/internal/log"
	ports "milksync/internal/sheets"
)

const (
	valueInputRaw = "RAW"
	insertRows    = "INSERT_ROWS"
	defaultRPS    = 5.0
	defaultBurst  = 10
)

// Ensure interface conformance
var _ ports.SpreadsheetClient = (*Client)(nil)

// Config selects the spreadsheet and the outbound request budget.
type Config struct {
	SpreadsheetID     string
	RequestsPerSecond float64
	Burst             int
}

// Client talks to one spreadsheet through the Sheets v4 values API.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

// New creates a Sheets client authenticated by ts.
func New(ctx context.Context, cfg Config, ts oauth2.TokenSource) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if ts == nil {
		return nil, errors.New("missing token source")
	}

	base := newHTTPClientWithPooling()
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
	httpClient.Timeout = base.Timeout

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		applog.FieldComponent, applog.ComponentSheets,
		"spreadsheet_id", spreadsheetID,
		"requests_per_second", cfg.RequestsPerSecond,
		"burst", cfg.Burst)

	return NewWithService(svc, spreadsheetID, newLimiter(cfg.RequestsPerSecond, cfg.Burst)), nil
}

// NewWithService wraps an existing service. A nil limiter disables throttling.
func NewWithService(svc *gsheet.Service, spreadsheetID string, limiter *rate.Limiter) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, limiter: limiter}
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API
// with connection pooling, timeouts and keep-alive.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteRange overwrites rng with values, stored as entered (RAW).
func (c *Client) WriteRange(ctx context.Context, rng string, values []core.SheetRow) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: toValues(values)}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).Context(ctx).Do()
	if err != nil {
		logAPIError(ctx, applog.OpUpdate, rng, err)
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// AppendRows inserts values as new rows after the table found in rng.
func (c *Client) AppendRows(ctx context.Context, rng string, values []core.SheetRow) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: toValues(values)}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).InsertDataOption(insertRows).Context(ctx).Do()
	if err != nil {
		logAPIError(ctx, applog.OpAppend, rng, err)
		return fmt.Errorf("append %s: %w", rng, err)
	}
	if resp.Updates != nil {
		slog.DebugContext(ctx, "Rows appended",
			applog.FieldComponent, applog.ComponentSheets,
			applog.FieldSheetsRange, resp.Updates.UpdatedRange,
			"rows", resp.Updates.UpdatedRows)
	}
	return nil
}

// ReadRange returns every row in rng.
func (c *Client) ReadRange(ctx context.Context, rng string) ([]core.SheetRow, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		logAPIError(ctx, applog.OpRead, rng, err)
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := make([]core.SheetRow, 0, len(resp.Values))
	for _, v := range resp.Values {
		rows = append(rows, core.SheetRow(v))
	}
	return rows, nil
}

func (c *Client) ready(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("sheets rate limit: %w", err)
		}
	}
	return nil
}

func toValues(rows []core.SheetRow) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}(r)
	}
	return out
}

func logAPIError(ctx context.Context, op, rng string, err error) {
	slog.ErrorContext(ctx, "Sheets API call failed",
		applog.FieldComponent, applog.ComponentSheets,
		applog.FieldOperation, op,
		applog.FieldSheetsRange, rng,
		applog.FieldErrorType, ErrorType(err),
		applog.FieldError, err)
}
