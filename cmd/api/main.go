package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relocation_quiz_backend/internal/adapters/storage"
	apphttp "relocation_quiz_backend/internal/http"
	"relocation_quiz_backend/internal/http/router"
	"relocation_quiz_backend/internal/leads"
	leadrepo "relocation_quiz_backend/internal/leads/repository"
	"relocation_quiz_backend/internal/savings"
	"relocation_quiz_backend/migrations"
	"relocation_quiz_backend/platform/config"
	"relocation_quiz_backend/platform/db"
	"relocation_quiz_backend/platform/logger"
	"relocation_quiz_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

func ensureBucket(ctx context.Context, log *logger.Logger, store storage.ObjectStore, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, log)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// A bad bracket table is an operator error; refuse to start.
	brackets, err := loadBrackets(cfg.GetBracketConfigPath())
	if err != nil {
		log.Error("failed to load bracket configuration", "error", err, "path", cfg.GetBracketConfigPath())
		panic("failed to load bracket configuration: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	leadsModule, err := leads.NewModule(leadrepo.New(pool), val, savings.NewCalculator(brackets), cfg, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	if guides := initGuideLinks(ctx, cfg, log); guides != nil {
		leadsModule.SetGuideLinker(guides)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{leadsModule},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// loadBrackets reads the bracket table from path, or the built-in table when
// no path is configured.
func loadBrackets(path string) (*savings.BracketConfig, error) {
	if path == "" {
		return savings.Default()
	}
	return savings.Load(path)
}

// initGuideLinks returns nil when storage is not configured; the lead-magnet
// form then answers without a download link.
func initGuideLinks(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) *storage.GuideLinks {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MinIO not configured; lead-magnet download links disabled")
		return nil
	}

	store, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage", "error", err)
		panic("failed to initialize storage: " + err.Error())
	}
	ensureBucket(ctx, log, store, "lead magnet", cfg.GetLeadMagnetBucket())

	guides := storage.NewGuideLinks(store, cfg)
	if err := guides.Check(ctx); err != nil {
		log.Warn("lead-magnet guide not available", "error", err)
	}
	return guides
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
