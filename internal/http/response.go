package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	applog "milksync/internal/log"
)

// maxBodyBytes matches the body limit the mobile client was built against.
const maxBodyBytes = 100 << 10

var errBodyTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Response encode failed",
			applog.FieldStatusCode, status,
			applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads the request body into v. An empty body leaves v
// untouched. Numbers in untyped fields decode as json.Number.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return err
	}
	return nil
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Invalid request body",
		applog.FieldErrorType, applog.ErrorTypeValidation,
		applog.FieldError, err)
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, "Request body too large.")
		return
	}
	writeError(w, r, http.StatusBadRequest, "Invalid JSON body.")
}
