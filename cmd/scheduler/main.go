package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	leadrepo "relocation_quiz_backend/internal/leads/repository"
	"relocation_quiz_backend/internal/scheduler"
	"relocation_quiz_backend/platform/config"
	"relocation_quiz_backend/platform/db"
	"relocation_quiz_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	pruneNow := flag.Bool("prune-now", false, "enqueue a single rate limit prune and exit")
	flag.Parse()

	load := config.Load
	if *pruneNow {
		load = config.LoadScheduler
	}
	cfg, err := load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *pruneNow {
		enqueuePrune(ctx, cfg, log)
		return
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	worker, err := scheduler.NewWorker(cfg, leadrepo.New(pool), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	log.Info("rate limit pruning scheduled",
		"schedule", cfg.GetRateLimitPruneSchedule(),
		"retention", cfg.GetRateLimitRetention().String(),
	)
	worker.Run(ctx)
}

func enqueuePrune(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	before := time.Now().Add(-cfg.GetRateLimitRetention())
	if err := client.EnqueuePruneRateLimits(ctx, scheduler.PruneRateLimitsPayload{Before: &before}); err != nil {
		log.Error("failed to enqueue rate limit prune", "error", err)
		panic("failed to enqueue rate limit prune: " + err.Error())
	}
	log.Info("rate limit prune enqueued", "before", before)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
