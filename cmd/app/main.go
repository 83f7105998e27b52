package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseforge/caseforge/internal/catalog"
	"github.com/caseforge/caseforge/internal/chat"
	"github.com/caseforge/caseforge/internal/concurrency"
	"github.com/caseforge/caseforge/internal/config"
	"github.com/caseforge/caseforge/internal/database"
	"github.com/caseforge/caseforge/internal/database/postgres"
	"github.com/caseforge/caseforge/internal/engine"
	"github.com/caseforge/caseforge/internal/event"
	"github.com/caseforge/caseforge/internal/eventlog"
	"github.com/caseforge/caseforge/internal/inventory"
	"github.com/caseforge/caseforge/internal/ledger"
	"github.com/caseforge/caseforge/internal/market"
	"github.com/caseforge/caseforge/internal/metrics"
	"github.com/caseforge/caseforge/internal/rarity"
	"github.com/caseforge/caseforge/internal/server"
	"github.com/caseforge/caseforge/internal/user"
)

const (
	shutdownTimeout = 10 * time.Second

	dbMaxConns    = 10
	dbMaxIdleTime = 5 * time.Minute
	dbMaxLifetime = 30 * time.Minute

	auditCleanupInterval = 24 * time.Hour

	deadLetterPath = "events_deadletter.jsonl"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	catalogService, err := catalog.NewService(cfg.CatalogPath)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	// Core services
	locks := concurrency.NewLockManager()
	ledgerService := ledger.NewService(locks)
	inventoryService := inventory.NewService(nil)
	marketService := market.NewService(nil)
	chatService := chat.NewService(nil)
	userService := user.NewService(ledgerService, cfg.StartingBalance, nil)
	resolver := rarity.NewResolver(catalogService, nil)

	// Event bus with retry and dead letter fallback
	bus := event.NewResilientPublisher(event.NewMemoryBus(), event.ResilientConfig{
		MaxRetries:     event.RetryMaxAttempts,
		RetryDelay:     event.RetryInitialDelaySeconds * time.Second,
		DeadLetterPath: deadLetterPath,
	})

	// Audit log: Postgres when configured, in-memory otherwise
	var dbPool *pgxpool.Pool
	var auditRepo eventlog.Repository
	if cfg.AuditDBURL != "" {
		dbPool, err = database.NewPool(cfg.AuditDBURL, dbMaxConns, dbMaxIdleTime, dbMaxLifetime)
		if err != nil {
			slog.Error("Failed to connect to audit database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		auditRepo = postgres.NewAuditRepository(dbPool)
	} else {
		slog.Warn("AUDIT_DB_URL not set, audit log is in-memory and lost on restart")
		auditRepo = eventlog.NewMemoryRepository(nil)
	}

	auditService := eventlog.NewService(auditRepo)
	if err := auditService.Subscribe(bus); err != nil {
		slog.Error("Failed to subscribe audit log", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewEventMetricsCollector()
	if err := collector.Register(bus); err != nil {
		slog.Error("Failed to register metrics collector", "error", err)
		os.Exit(1)
	}

	engineService := engine.NewService(
		catalogService,
		resolver,
		ledgerService,
		inventoryService,
		marketService,
		chatService,
		userService,
		bus,
	)

	// Periodic audit retention cleanup
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go runAuditCleanup(cleanupCtx, auditService, cfg.AuditRetention)

	var poolForReadiness database.Pool
	if dbPool != nil {
		poolForReadiness = dbPool
	}

	srv := server.NewServer(
		cfg.Port,
		cfg.APIKey,
		cfg.TrustedProxies,
		poolForReadiness,
		engineService,
		userService,
		inventoryService,
		catalogService,
		auditService,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	// Drain in-flight event publishes before the process exits so the
	// audit log sees every completed operation.
	if err := engineService.Shutdown(shutdownCtx); err != nil {
		slog.Error("Engine shutdown incomplete", "error", err)
	}

	slog.Info("Shutdown complete")
}

// runAuditCleanup trims old audit entries once a day.
func runAuditCleanup(ctx context.Context, auditService eventlog.Service, retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	job := eventlog.NewCleanupJob(auditService, retentionDays)
	ticker := time.NewTicker(auditCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job.Process(ctx); err != nil {
				slog.Error("Audit cleanup failed", "error", err)
			}
		}
	}
}
