package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"financas/internal/amqp"
	"financas/internal/billing"
	"financas/internal/core"
	"financas/internal/storage"
)

// SeriesService orchestrates series creation: card billing resolution,
// installment expansion, transactional persistence and event publishing.
type SeriesService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	generator  Generator
}

func NewSeriesService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, generator Generator) *SeriesService {
	return &SeriesService{
		storage:    storage,
		amqpClient: amqpClient,
		generator:  generator,
	}
}

// CreateSeries validates and expands a series and persists every installment
// in a single transaction, so a mid-batch failure leaves no partial series.
// Card billing resolution happens here, at creation, and only here: the due
// date transform is not idempotent and must never be re-applied on edit.
func (s *SeriesService) CreateSeries(ctx context.Context, series core.EntrySeries) ([]core.Installment, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	if series.CardID != 0 {
		card, err := s.storage.GetCardConfig(ctx, series.CardID)
		if err != nil {
			return nil, fmt.Errorf("lookup card %d: %w", series.CardID, err)
		}
		if err := card.Validate(); err != nil {
			return nil, fmt.Errorf("card %d: %w", series.CardID, err)
		}
		series = billing.ApplyCard(series, card)
	}

	installments, err := s.generator.Expand(series)
	if err != nil {
		return nil, err
	}
	if len(installments) == 0 {
		// Nothing was written, so nothing to announce.
		return installments, nil
	}

	seriesID := uuid.NewString()
	for i := range installments {
		installments[i].SeriesID = seriesID
	}

	if err := s.storage.CreateSeries(ctx, installments); err != nil {
		return nil, fmt.Errorf("persist series %s: %w", seriesID, err)
	}

	slog.InfoContext(ctx, "Series created",
		"series_id", seriesID,
		"entry_type", series.Type,
		"recurrence", series.Recurrence,
		"installments", len(installments),
		"owner_id", series.OwnerID)

	// Publish async notification (best-effort, rows are already committed)
	if err := s.publishSeriesCreated(ctx, seriesID, series.OwnerID, len(installments)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish series created message",
			"series_id", seriesID, "error", err)
	}

	return installments, nil
}

// TogglePaid flips the paid flag of one installment and returns the new
// state.
func (s *SeriesService) TogglePaid(ctx context.Context, ownerID, installmentID int64) (bool, error) {
	paid, err := s.storage.TogglePaid(ctx, ownerID, installmentID)
	if err != nil {
		return false, fmt.Errorf("toggle paid: %w", err)
	}

	if err := s.publishInstallmentPaid(ctx, installmentID, paid); err != nil {
		slog.ErrorContext(ctx, "Failed to publish installment paid message",
			"id", installmentID, "error", err)
	}
	return paid, nil
}

// UpdateThisAndFuture applies changes to one installment and all its series
// siblings dated on or after it.
func (s *SeriesService) UpdateThisAndFuture(ctx context.Context, ownerID, installmentID int64, changes storage.InstallmentChanges) (int64, error) {
	inst, err := s.storage.GetInstallment(ctx, ownerID, installmentID)
	if err != nil {
		return 0, fmt.Errorf("get installment: %w", err)
	}
	n, err := s.storage.UpdateFutureInstallments(ctx, ownerID, inst.SeriesID, inst.EffectiveDate, changes)
	if err != nil {
		return 0, fmt.Errorf("update future installments: %w", err)
	}
	return n, nil
}

// DeleteThisAndFuture removes one installment and all its series siblings
// dated on or after it.
func (s *SeriesService) DeleteThisAndFuture(ctx context.Context, ownerID, installmentID int64) (int64, error) {
	inst, err := s.storage.GetInstallment(ctx, ownerID, installmentID)
	if err != nil {
		return 0, fmt.Errorf("get installment: %w", err)
	}
	n, err := s.storage.DeleteFutureInstallments(ctx, ownerID, inst.SeriesID, inst.EffectiveDate)
	if err != nil {
		return 0, fmt.Errorf("delete future installments: %w", err)
	}
	return n, nil
}

func (s *SeriesService) publishSeriesCreated(ctx context.Context, seriesID string, ownerID int64, count int) error {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping series created message")
		return nil
	}
	return s.amqpClient.PublishSeriesCreated(ctx, seriesID, ownerID, count)
}

func (s *SeriesService) publishInstallmentPaid(ctx context.Context, id int64, paid bool) error {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping installment paid message")
		return nil
	}
	return s.amqpClient.PublishInstallmentPaid(ctx, id, paid)
}

// Close closes both storage and AMQP connections.
func (s *SeriesService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close series service: %v", errs)
	}
	return nil
}
