// Package main is the entry point for the khata API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"khata/internal/core/tx"
	"khata/internal/domain/batch"
	"khata/internal/domain/ledger"
	"khata/internal/domain/party"
	v1 "khata/internal/infrastructure/http/v1"
	"khata/internal/infrastructure/storage/memory"
	"khata/internal/infrastructure/storage/postgres"
	"khata/pkg/config"
	"khata/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development || cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting khata server", "env", cfg.App.Env)

	var (
		pool       *postgres.Pool
		ledgerRepo ledger.Repository
		batchRepo  batch.Repository
		partyRepo  party.Repository
		txm        tx.Manager
		auditor    ledger.CorrectionAuditor
	)

	if cfg.Database.URL != "" {
		poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.MinConns = cfg.Database.MinConns

		pool, err = postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		pgTxm := postgres.NewTxManager(pool)
		ledgerRepo = postgres.NewLedgerRepo(pgTxm)
		batchRepo = postgres.NewBatchRepo(pgTxm)
		partyRepo = postgres.NewPartyRepo(pgTxm)
		txm = pgTxm

		auditor, err = postgres.NewCorrectionAudit(pgTxm)
		if err != nil {
			log.Fatalw("failed to initialize correction audit", "error", err)
		}
	} else {
		log.Info("no DATABASE_URL set, using in-memory store")
		store := memory.New()
		ledgerRepo = store
		batchRepo = store
		partyRepo = store
		txm = memory.NewTxManager()
	}

	ledgerService := ledger.NewService(ledgerRepo, txm, auditor)
	batchService := batch.NewService(batchRepo, ledgerService, txm)
	resolver := party.NewResolver(partyRepo)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:        log,
		Pool:          pool,
		LedgerService: ledgerService,
		BatchService:  batchService,
		Resolver:      resolver,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
