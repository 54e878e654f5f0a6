package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/portfolio-tracker/internal/adapter/grpc"
	"github.com/simaogato/portfolio-tracker/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-tracker/internal/adapter/rest"
	"github.com/simaogato/portfolio-tracker/internal/app"
	"github.com/simaogato/portfolio-tracker/internal/config"
	"github.com/simaogato/portfolio-tracker/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config", "directory containing appsettings.yaml")
	flag.Parse()

	// 1. Load configuration and logger
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		logrus.Fatalf("Failed to create logger: %v", err)
	}
	ctx := logging.WithLogger(context.Background(), logger)

	// 2. Setup database, cache and services
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	if err := postgres.Migrate(ctx, application.DB); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize System Seeder and run it
	portfolio, err := application.Seeder.Seed(ctx)
	if err != nil {
		logger.Fatalf("Failed to seed default portfolio: %v", err)
	}
	logger.WithField("portfolio_id", portfolio.ID.String()).Info("Default portfolio seeded")

	// 3. Start gRPC Server
	interceptors := []grpclib.UnaryServerInterceptor{grpcadapter.LoggingInterceptor(logger)}
	if cfg.Service.APIToken != "" {
		interceptors = append(interceptors, grpcadapter.AuthInterceptor(cfg.Service.APIToken))
	} else {
		logger.Warn("service.api_token is empty; API calls are not authenticated")
	}
	grpcServer := grpclib.NewServer(grpclib.ChainUnaryInterceptor(interceptors...))

	grpcAdapter := grpcadapter.NewServer(
		application.LedgerService,
		application.BasketService,
		application.PositionService,
		application.DashboardService,
		application.Location,
	)
	grpcadapter.RegisterPortfolioServiceServer(grpcServer, grpcAdapter)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		logger.Fatalf("Failed to listen on %s: %v", cfg.Service.GRPCPort, err)
	}

	go func() {
		logger.Infof("gRPC server listening on :%s", cfg.Service.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// 4. Start HTTP Server
	handler := rest.NewHandler(
		application.DashboardService,
		application.PositionService,
		application.TimeSeriesService,
		cfg.Pricing.ChartDefaultDays,
	)
	httpServer := rest.NewHTTPServer(cfg.Service.HTTPPort, rest.NewServer(handler, cfg.Service.APIToken, logger))

	go func() {
		logger.Infof("HTTP server listening on :%s", cfg.Service.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to serve HTTP server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(logger, grpcServer, httpServer)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(logger logrus.FieldLogger, grpcServer *grpclib.Server, httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Infof("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("HTTP server did not stop cleanly")
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}
