// Package worker reacts to series events arriving over the message queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/amqp"
)

// OpenSeriesProcessor tops up open-ended series to the current horizon.
type OpenSeriesProcessor interface {
	ProcessOpenSeries(ctx context.Context, now time.Time) (int, error)
}

// NotifyWorker consumes series-created messages and triggers an immediate
// horizon pass, so a freshly created open-ended series is materialized
// without waiting for the next scheduled tick.
type NotifyWorker struct {
	client    *amqp.Client
	processor OpenSeriesProcessor
}

func NewNotifyWorker(client *amqp.Client, processor OpenSeriesProcessor) *NotifyWorker {
	return &NotifyWorker{
		client:    client,
		processor: processor,
	}
}

// Run consumes series-created messages until the context is cancelled.
func (w *NotifyWorker) Run(ctx context.Context) error {
	return w.client.ConsumeSeriesCreated(ctx, func(msg *amqp.SeriesCreatedMessage) error {
		return w.handleSeriesCreated(ctx, msg)
	})
}

func (w *NotifyWorker) handleSeriesCreated(ctx context.Context, msg *amqp.SeriesCreatedMessage) error {
	if msg.SeriesID == "" {
		return fmt.Errorf("series created message without series id")
	}

	slog.InfoContext(ctx, "Processing series created message",
		"series_id", msg.SeriesID,
		"owner_id", msg.OwnerID,
		"count", msg.Count)

	appended, err := w.processor.ProcessOpenSeries(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("process open series: %w", err)
	}

	slog.InfoContext(ctx, "Series created message handled",
		"series_id", msg.SeriesID,
		"rows_appended", appended)
	return nil
}
