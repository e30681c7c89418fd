package services

import (
	"context"
	"fmt"
	"log/slog"

	"milksync/internal/core"
	applog "milksync/internal/log"
	"milksync/internal/sheets"
)

// DeliveryPublisher announces deliveries that reached the sheet.
type DeliveryPublisher interface {
	PublishDeliverySynced(ctx context.Context, rec core.DeliveryRecord) error
}

// SyncService writes deliveries into the sheet.
type SyncService struct {
	client    sheets.SpreadsheetClient
	layout    Layout
	publisher DeliveryPublisher
}

// NewSyncService creates a sync service. publisher may be nil.
func NewSyncService(client sheets.SpreadsheetClient, layout Layout, publisher DeliveryPublisher) *SyncService {
	return &SyncService{client: client, layout: layout, publisher: publisher}
}

// Sync rewrites the header row and appends rec as one new row. A header
// written before a failed append stays written; nothing is retried.
func (s *SyncService) Sync(ctx context.Context, rec *core.DeliveryRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: delivery data is required", core.ErrValidation)
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentSync).
		WithOperation(applog.OpSync).
		WithDelivery(rec.CustomerID, rec.CustomerName, rec.Date, rec.MilkTotal)

	headerRange := s.layout.HeaderRange()
	if err := s.client.WriteRange(ctx, headerRange, []core.SheetRow{s.layout.Schema.Header()}); err != nil {
		slog.ErrorContext(ctx, "Header write failed", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("%w: write header %s: %v", core.ErrSync, headerRange, err)
	}

	row := core.Normalize(s.layout.Schema, *rec)
	dataRange := s.layout.DataRange()
	if err := s.client.AppendRows(ctx, dataRange, []core.SheetRow{row}); err != nil {
		slog.ErrorContext(ctx, "Delivery append failed", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("%w: append %s: %v", core.ErrSync, dataRange, err)
	}

	slog.InfoContext(ctx, "Delivery synced", fields.ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishDeliverySynced(ctx, *rec); err != nil {
			slog.WarnContext(ctx, "Delivery synced event not published",
				applog.FieldComponent, applog.ComponentAMQP,
				applog.FieldOperation, applog.OpPublish,
				applog.FieldError, err)
		}
	}
	return nil
}
