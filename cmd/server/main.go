// Snapdeck server - owns the screenshot queues and the overlay window state,
// and serves the shell over WebSocket, REST and gRPC health.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/snapdeck/internal/config"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
	"github.com/GriffinCanCode/snapdeck/internal/orchestrator"
	"github.com/GriffinCanCode/snapdeck/internal/processing"
	"github.com/GriffinCanCode/snapdeck/internal/screen"
	"github.com/GriffinCanCode/snapdeck/internal/server"
	"github.com/GriffinCanCode/snapdeck/internal/window"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	m := metrics.New()
	win := window.NewController(cfg.MoveStep, m)

	var proc processing.Processor = processing.Noop{}
	if cfg.ProcessingURL != "" {
		proc = processing.New(cfg.ProcessingURL, cfg.ProcessingTimeout, m)
	}

	capturer := screen.New(cfg.TempDir(), m)
	slog.Info("capture backend ready", "strategies", capturer.Names())

	mgr, err := orchestrator.New(cfg, win, capturer, proc, m)
	if err != nil {
		slog.Error("failed to initialize screenshot queues", "data_dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	grpcServer, health := server.NewGRPC()
	srv := server.New(mgr, win, cfg, m).WithHealth(health)

	// WebSocket connections are long-lived, so no write timeout here.
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("snapdeck server starting", "http", cfg.HTTPAddr, "grpc", cfg.GRPCAddr, "data_dir", cfg.DataDir)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		slog.Error("failed to listen for grpc", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("grpc server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	health.Shutdown()
	if err := proc.Cancel(shutdownCtx); err != nil {
		slog.Warn("failed to cancel processing", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	slog.Info("shutdown complete")
}
