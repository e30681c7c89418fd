package google

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	applog "milksync/internal/log"
)

// ErrorType maps a Sheets API error to the log error_type category. It is
// only used for diagnostics; callers never see the distinction.
func ErrorType(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return applog.ErrorTypeTimeout
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return applog.ErrorTypeNetwork
	}
	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return applog.ErrorTypeAuth
	case http.StatusNotFound:
		return applog.ErrorTypeNotFound
	case http.StatusTooManyRequests:
		return applog.ErrorTypeQuota
	case http.StatusBadRequest:
		return applog.ErrorTypeValidation
	}
	if gerr.Code >= 500 {
		return applog.ErrorTypeUpstream
	}
	return applog.ErrorTypeInternal
}
