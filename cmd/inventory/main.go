package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	inventoryrpc "github.com/tair/batch-allocation/api/rpc/inventory"
	"github.com/tair/batch-allocation/internal/inventory"
	"github.com/tair/batch-allocation/internal/inventory/cache"
	grpcDelivery "github.com/tair/batch-allocation/internal/inventory/delivery/grpc"
	httpDelivery "github.com/tair/batch-allocation/internal/inventory/delivery/http"
	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/internal/inventory/seed"
	"github.com/tair/batch-allocation/kafka"
	"github.com/tair/batch-allocation/pkg/config"
	"github.com/tair/batch-allocation/pkg/database"
	"github.com/tair/batch-allocation/pkg/logger"
	"github.com/tair/batch-allocation/pkg/middleware"
	"github.com/tair/batch-allocation/pkg/tracing"
)

func main() {
	cfg := config.LoadInventory()

	// Initialize logger
	logger.Init(cfg.Logger())
	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting inventory service")

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
	if err := db.AutoMigrate(&domain.Product{}, &domain.InventoryBatch{}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	// Optional infrastructure, disabled when unreachable
	ctx := context.Background()
	batchCache := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	defer batchCache.Close()

	publisher := kafka.Connect(cfg.Kafka)
	defer publisher.Close()

	// Initialize service with Wire DI
	svc, err := inventory.InitializeService(db, batchCache, publisher)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize service")
	}

	if cfg.SeedData {
		if _, err := seed.Run(ctx, svc.Products, svc.Batches, time.Now()); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to seed inventory")
		}
	}

	logger.Logger.Info().
		Strs("strategies", svc.Registry.Keys()).
		Bool("cache", batchCache != nil).
		Bool("events", publisher != nil).
		Msg("Inventory service initialized")

	grpcServer := startGRPCServer(svc.GRPC, cfg.GRPCPort)
	httpServer := startHTTPServer(svc.HTTP, sqlDB, cfg.HTTPPort)

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
	grpcServer.GracefulStop()
}

func startHTTPServer(handler *httpDelivery.InventoryHandler, db *sql.DB, port string) *http.Server {
	router := mux.NewRouter()

	mwConfig := middleware.DefaultConfig("inventory-service")
	middleware.Register(router, mwConfig)

	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, db)
	httpDelivery.RegisterSwaggerDocs(router)

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

func startGRPCServer(srv *grpcDelivery.InventoryGRPCServer, port string) *grpc.Server {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("port", port).Msg("Failed to listen for gRPC")
	}

	server := grpc.NewServer(grpcDelivery.ServerOptions(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)...)
	inventoryrpc.RegisterInventoryServiceServer(server, srv)

	go func() {
		logger.Logger.Info().
			Str("port", port).
			Str("service", inventoryrpc.ServiceName).
			Msg("gRPC server started")

		if err := server.Serve(lis); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to serve gRPC")
		}
	}()

	return server
}
