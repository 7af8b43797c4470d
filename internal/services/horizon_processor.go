package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/core"
	"financas/internal/storage"
)

// HorizonProcessor keeps open-ended series materialized. Unbounded series are
// only stored through a rolling horizon (December 31 of next year); as time
// advances the processor appends the occurrences that have come into range.
type HorizonProcessor struct {
	storage   *storage.SQLiteRepository
	generator Generator
}

func NewHorizonProcessor(storage *storage.SQLiteRepository, generator Generator) *HorizonProcessor {
	return &HorizonProcessor{
		storage:   storage,
		generator: generator,
	}
}

// ProcessOpenSeries extends every open-ended series whose last materialized
// row falls short of the current horizon. It returns the number of rows
// appended. Failures on one series are logged and do not stop the others.
func (p *HorizonProcessor) ProcessOpenSeries(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	horizon := p.generator.Horizon(core.Date{Time: now.UTC()})

	lastRows, err := p.storage.ListOpenSeriesTails(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open series: %w", err)
	}

	slog.InfoContext(ctx, "Extending open-ended series",
		"total_open", len(lastRows),
		"horizon", horizon.Format("2006-01-02"))

	appended := 0
	for _, last := range lastRows {
		if !last.EffectiveDate.Before(horizon.Time) {
			continue
		}

		rows, err := p.generator.Extend(last, horizon)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to extend series",
				"series_id", last.SeriesID, "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		if err := p.storage.CreateSeries(ctx, rows); err != nil {
			slog.ErrorContext(ctx, "Failed to append installments",
				"series_id", last.SeriesID, "error", err)
			continue
		}

		appended += len(rows)
		slog.InfoContext(ctx, "Extended open-ended series",
			"series_id", last.SeriesID,
			"rows", len(rows),
			"through", rows[len(rows)-1].EffectiveDate.Format("2006-01-02"))
	}

	slog.InfoContext(ctx, "Open series extension complete",
		"appended", appended,
		"total_checked", len(lastRows))

	return appended, nil
}
