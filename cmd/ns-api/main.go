package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/query"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.CfgLog.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.CfgLog.Warnf("Ignoring log_level %q: %v", cfg.LogLevel, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	querier, err := query.New(ctx, cfg)
	cancel()
	if err != nil {
		logger.APILog.Fatalf("Failed to create querier: %v", err)
	}
	defer querier.Close()

	// Start HTTP server
	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: NewRouter(&APIHandler{querier: querier}),
	}
	go func() {
		logger.APILog.Infof("API server starting on %s (source: %s)", server.Addr, cfg.API.Source)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.APILog.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Start gRPC health server
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", cfg.API.GRPCAddr)
	if err != nil {
		logger.APILog.Fatalf("Failed to listen on %s: %v", cfg.API.GRPCAddr, err)
	}
	go func() {
		logger.APILog.Infof("gRPC health server starting on %s", cfg.API.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.APILog.Errorf("gRPC server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.APILog.Info("API server shutting down...")

	healthServer.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.APILog.Errorf("Server forced to shutdown: %v", err)
	}
	logger.APILog.Info("API server exited.")
}
