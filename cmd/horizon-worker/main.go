// Command horizon-worker keeps open-ended series materialized: it
// periodically appends the installments that have come inside the rolling
// materialization horizon, and reacts to series-created events for an
// immediate pass.
package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/amqp"
	"financas/internal/cli"
	applog "financas/internal/log"
	"financas/internal/services"
	"financas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting horizon-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	processor := services.NewHorizonProcessor(repo, services.Generator{HorizonYears: cfg.HorizonYears})

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, running on the ticker only", "error", err)
			amqpClient = nil
		}
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close repository", "error", err)
		}
	})

	logger.Info("Horizon processor configured",
		"interval", cfg.WorkerInterval,
		"horizon_years", cfg.HorizonYears,
		"sqlite_db", cfg.SQLiteDBPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Run once on startup, then on every tick.
		if count, err := processor.ProcessOpenSeries(gctx, time.Now()); err != nil {
			logger.Error("Initial processing failed", "error", err)
		} else {
			logger.Info("Initial processing complete", "rows_appended", count)
		}

		ticker := time.NewTicker(cfg.WorkerInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case now := <-ticker.C:
				count, err := processor.ProcessOpenSeries(gctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
					continue
				}
				logger.Info("Periodic processing complete",
					"rows_appended", count,
					"next_check", now.Add(cfg.WorkerInterval).Format("15:04:05"))
			}
		}
	})

	if amqpClient != nil {
		notify := worker.NewNotifyWorker(amqpClient, processor)
		g.Go(func() error {
			return notify.Run(gctx)
		})
		logger.Info("Consuming series created events", "queue", cfg.AMQPQueue)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
	}

	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Horizon-worker shutdown complete")
}
