package http

import (
	"errors"
	"net/http"

	"milksync/internal/core"
	applog "milksync/internal/log"
	"milksync/internal/services"
)

type syncDeliveryRequest struct {
	DeliveryData any `json:"deliveryData"`
}

// deliveryRecord reads deliveryData as sent. Blank values (absent, null,
// "", 0, false) mean no delivery. An object supplies the fields by exact
// name; any other value carries no fields and yields an empty record.
func (req syncDeliveryRequest) deliveryRecord() *core.DeliveryRecord {
	if core.IsBlank(req.DeliveryData) {
		return nil
	}
	m, _ := req.DeliveryData.(map[string]any)
	return &core.DeliveryRecord{
		CustomerID:   m["customerID"],
		CustomerName: m["customerName"],
		Date:         m["date"],
		MilkType:     m["milkType"],
		Quantity:     m["quantity"],
		MilkRate:     m["milkRate"],
		MilkTotal:    m["milkTotal"],
	}
}

type fetchSummariesRequest struct {
	Month              any `json:"month"`
	Year               any `json:"year"`
	SelectedCustomerID any `json:"selectedCustomerId"`
}

func (s *Server) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	tok, err := s.tokens.AccessToken(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Access token generation failed",
			applog.FieldOperation, applog.OpToken,
			applog.FieldErrorType, applog.ErrorTypeAuth,
			applog.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "Failed to generate access token")
		return
	}

	s.metrics.tokensIssued.Add(1)
	logger.InfoContext(ctx, "Access token issued",
		applog.FieldOperation, applog.OpToken,
		"expiry", tok.Expiry)
	writeJSON(w, r, http.StatusOK, map[string]string{"accessToken": tok.AccessToken})
}

func (s *Server) handleSyncDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var req syncDeliveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	rec := req.deliveryRecord()
	if rec == nil {
		logger.WarnContext(ctx, "Delivery data missing",
			applog.FieldErrorType, applog.ErrorTypeValidation)
		writeError(w, r, http.StatusBadRequest, "Delivery data is required.")
		return
	}

	if err := s.syncer.Sync(ctx, rec); err != nil {
		if errors.Is(err, core.ErrValidation) {
			writeError(w, r, http.StatusBadRequest, "Delivery data is required.")
			return
		}
		s.metrics.syncFailures.Add(1)
		logger.ErrorContext(ctx, "Delivery sync failed",
			applog.NewFields().
				WithOperation(applog.OpSync).
				WithError(err).
				WithDelivery(rec.CustomerID, rec.CustomerName, rec.Date, rec.MilkTotal).
				ToSlice()...)
		writeError(w, r, http.StatusInternalServerError, "Failed to sync delivery to Google Sheets")
		return
	}

	s.metrics.deliveriesSynced.Add(1)
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Delivery synced successfully with headers!"})
}

func (s *Server) handleFetchSummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var req fetchSummariesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	q, err := services.NewSummaryQuery(req.Month, req.Year, req.SelectedCustomerID)
	if err != nil {
		logger.WarnContext(ctx, "Invalid summary query",
			applog.FieldErrorType, applog.ErrorTypeValidation,
			applog.FieldError, err)
		writeError(w, r, http.StatusBadRequest, "Month and year are required.")
		return
	}

	rows, err := s.summaries.FetchSummaries(ctx, q)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			writeError(w, r, http.StatusBadRequest, "Month and year are required.")
			return
		}
		logger.ErrorContext(ctx, "Summary fetch failed",
			applog.NewFields().
				WithOperation(applog.OpFetch).
				WithError(err).
				WithPeriod(q.Month, q.Year).
				ToSlice()...)
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch summaries from Google Sheets.")
		return
	}

	if rows == nil {
		rows = []core.SheetRow{}
	}
	s.metrics.summariesFetched.Add(1)
	writeJSON(w, r, http.StatusOK, map[string]any{"deliveries": rows})
}
