// cmd/generator-service/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"starterforge/internal/catalog"
	awsclient "starterforge/internal/common/aws"
	"starterforge/internal/common/config"
	"starterforge/internal/common/database"
	"starterforge/internal/common/logger"
	"starterforge/internal/engine"
	"starterforge/internal/generation"
	"starterforge/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting generator service...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Load Template Registry ---
	reg, err := registry.LoadRegistry(cfg.Generator.TemplateRegistryPath)
	if err != nil {
		zapLog.Fatal("template registry load failed",
			zap.Error(err),
			zap.String("path", cfg.Generator.TemplateRegistryPath),
		)
	}
	zapLog.Info("Template registry loaded", zap.Int("templates", len(reg.Templates)))

	// --- Feature Catalog ---
	var cat catalog.Accessor = catalog.NewPostgresCatalog(pg.GetDB(), log)
	cat = catalog.NewCachedAccessor(cat, redis.GetClient(), 10*time.Minute, log)

	// --- Generation Engine ---
	eng := engine.New(cat, osfs.New("/"), cfg.Generator.BaseTreePath, log)

	// --- Completion Notifier ---
	var notifier generation.Notifier = generation.NoopNotifier{}
	if cfg.Notifications.Email.Enabled {
		sesClient, err := awsclient.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		notifier = generation.NewSESNotifier(sesClient, cfg.Notifications.Email.FromEmail, log)
		zapLog.Info("SES notifier enabled", zap.String("from", cfg.Notifications.Email.FromEmail))
	}

	// --- Runner ---
	store := generation.NewStore(pg.GetDB())
	lock := generation.NewOrderLock(redis.GetClient(), config.GetDuration(cfg.Generator.LockTTL))
	orders := generation.NewPostgresOrderProvider(pg.GetDB(), reg)
	archiver := generation.NewFilesystemArchiver(osfs.New("/"), cfg.Generator.OutputPath, log)

	runner := generation.NewRunner(store, lock, eng, orders, archiver, notifier, log,
		config.GetDuration(cfg.Generator.PollInterval),
		config.GetDuration(cfg.Generator.RunTimeout),
	)

	runCtx, cancelRun := context.WithCancel(ctx)
	go func() {
		if err := runner.Run(runCtx); err != nil && err != context.Canceled {
			zapLog.Error("runner stopped", zap.Error(err))
		}
	}()
	zapLog.Info("Generation runner started",
		zap.Int("pollInterval_ms", cfg.Generator.PollInterval),
		zap.Int("runTimeout_ms", cfg.Generator.RunTimeout),
	)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping runner...")
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	zapLog.Info("Generator service stopped gracefully")
}
