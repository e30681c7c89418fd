package google

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"milksync/internal/core"
	applog "milksync/internal/log"
	ports "milksync/internal/sheets"
)

var _ ports.TokenIssuer = (*TokenIssuer)(nil)

// TokenIssuer hands the service account's access token to callers that
// talk to Sheets directly.
type TokenIssuer struct {
	ts oauth2.TokenSource
}

func NewTokenIssuer(ts oauth2.TokenSource) *TokenIssuer {
	return &TokenIssuer{ts: ts}
}

// AccessToken returns a valid bearer token. Failures wrap core.ErrAuth.
func (i *TokenIssuer) AccessToken(ctx context.Context) (ports.Token, error) {
	if i.ts == nil {
		return ports.Token{}, fmt.Errorf("%w: no token source", core.ErrAuth)
	}
	tok, err := i.ts.Token()
	if err != nil {
		slog.ErrorContext(ctx, "Access token request failed",
			applog.FieldComponent, applog.ComponentAuth,
			applog.FieldErrorType, applog.ErrorTypeAuth,
			applog.FieldError, err)
		return ports.Token{}, fmt.Errorf("%w: %v", core.ErrAuth, err)
	}
	return ports.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
		Expiry:      tok.Expiry,
	}, nil
}
