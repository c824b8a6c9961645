package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/bizplan-backend/internal/adapter/grpc"
	"github.com/simaogato/bizplan-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/bizplan-backend/internal/adapter/rest"
	"github.com/simaogato/bizplan-backend/internal/config"
	"github.com/simaogato/bizplan-backend/internal/logger"
	"github.com/simaogato/bizplan-backend/internal/usecase/forecast"
	"github.com/simaogato/bizplan-backend/internal/usecase/projection"
	"github.com/simaogato/bizplan-backend/internal/usecase/simulation"
)

const (
	dbConnectAttempts = 5
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Stage, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	// 2. Setup Database
	db, err := connectDB(cfg.DBConnStr, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 3. Initialize Repositories (Postgres)
	projectionRepo := postgres.NewProjectionRepository(db)
	simulationRepo := postgres.NewSimulationRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	forecastDataRepo := postgres.NewForecastDataRepository(db)
	forecastResultRepo := postgres.NewForecastResultRepository(db)

	// 4. Initialize Services (Use Cases)
	projectionService := projection.NewProjectionService(projectionRepo, zapLogger)
	simulationService := simulation.NewSimulationService(simulationRepo, ledgerRepo, zapLogger)
	forecastService := forecast.NewForecastService(forecastDataRepo, forecastResultRepo, simulationRepo, ledgerRepo, zapLogger)

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.RecoveryInterceptor(zapLogger),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)
	grpcadapter.RegisterPlannerServiceServer(grpcServer, grpcadapter.NewServer(projectionService, forecastService, zapLogger))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		zapLogger.Fatal("Failed to listen", zap.String("addr", cfg.GRPCAddr()), zap.Error(err))
	}

	go func() {
		zapLogger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr()))
		if err := grpcServer.Serve(lis); err != nil {
			zapLogger.Fatal("Failed to serve gRPC server", zap.Error(err))
		}
	}()

	// 6. Start REST Server
	if cfg.Stage == logger.ProdStage {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := rest.NewHandler(projectionService, simulationService, forecastService, zapLogger)
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: rest.NewRouter(handler, rest.RouterConfig{
			APIToken:    cfg.APIToken,
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to serve HTTP server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(zapLogger, grpcServer, httpServer)
}

// connectDB retries while Postgres is still starting up
func connectDB(connStr string, logger *zap.Logger) (*postgres.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		db, err := postgres.NewDB(connStr)
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("database not ready", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, lastErr
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(logger *zap.Logger, grpcServer *grpclib.Server, httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}
