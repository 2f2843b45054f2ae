package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tair/batch-allocation/internal/order"
	"github.com/tair/batch-allocation/internal/order/client"
	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/internal/order/handler"
	"github.com/tair/batch-allocation/kafka"
	"github.com/tair/batch-allocation/pkg/config"
	"github.com/tair/batch-allocation/pkg/database"
	"github.com/tair/batch-allocation/pkg/logger"
	"github.com/tair/batch-allocation/pkg/middleware"
	"github.com/tair/batch-allocation/pkg/tracing"
)

func main() {
	cfg := config.LoadOrder()

	// Initialize logger
	logger.Init(cfg.Logger())
	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting order service")

	// Initialize tracer
	tp, err := tracing.InitTracer(cfg.Tracing())
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(&domain.Order{}, &domain.OrderItem{}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	// Inventory service client
	inventoryClient, closer, err := client.New(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create inventory client")
	}
	defer closer.Close()

	publisher := kafka.Connect(cfg.Kafka)
	defer publisher.Close()

	// Initialize handler with Wire DI
	orderHandler, err := order.InitializeHandler(db, inventoryClient, publisher, cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	logger.Logger.Info().
		Str("inventory_transport", cfg.InventoryTransport).
		Dur("inventory_timeout", cfg.InventoryTimeout).
		Bool("saga", cfg.SagaEnabled).
		Bool("events", publisher != nil).
		Msg("Order service initialized")

	httpServer := startHTTPServer(orderHandler, sqlDB, cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

func startHTTPServer(h *handler.OrderHandler, db *sql.DB, port string) *http.Server {
	router := mux.NewRouter()

	mwConfig := middleware.DefaultConfig("order-service")
	middleware.Register(router, mwConfig)

	h.RegisterRoutes(router)
	h.RegisterHealthCheck(router, db)
	handler.RegisterSwaggerDocs(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           middleware.CORS(mwConfig, router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Logger.Info().
			Str("port", port).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	return server
}
