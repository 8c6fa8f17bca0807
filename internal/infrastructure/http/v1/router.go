// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"khata/internal/domain/batch"
	"khata/internal/domain/ledger"
	"khata/internal/domain/party"
	"khata/internal/infrastructure/http/v1/handlers"
	"khata/internal/infrastructure/http/v1/middleware"
	"khata/internal/infrastructure/storage/postgres"
	"khata/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Pool is the database pool; nil when running on the in-memory store
	Pool *postgres.Pool

	LedgerService *ledger.Service
	BatchService  *batch.Service
	Resolver      *party.Resolver
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		baseHandler := handlers.NewBaseHandler()

		ledgerHandler := handlers.NewLedgerHandler(baseHandler, cfg.LedgerService)
		ledgerHandler.RegisterRoutes(v1.Group("/obligations"))

		batchHandler := handlers.NewBatchHandler(baseHandler, cfg.BatchService)
		batchHandler.RegisterRoutes(v1.Group("/batches"))

		partyHandler := handlers.NewPartyHandler(baseHandler, cfg.Resolver, cfg.LedgerService, cfg.BatchService)
		partyHandler.RegisterWholesalerRoutes(v1.Group("/wholesalers"))
		partyHandler.RegisterCustomerRoutes(v1.Group("/customers"))
	}

	return router
}
