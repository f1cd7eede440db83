package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slavakukuyev/elevator-go/internal/factory"
	httpPkg "github.com/slavakukuyev/elevator-go/internal/http"
	"github.com/slavakukuyev/elevator-go/internal/infra/config"
	"github.com/slavakukuyev/elevator-go/internal/infra/logging"
	"github.com/slavakukuyev/elevator-go/internal/manager"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envInfo := cfg.GetEnvironmentInfo()
	slog.InfoContext(ctx, "elevator bank simulator starting up",
		slog.String("environment", cfg.Environment),
		slog.String("log_level", cfg.LogLevel),
		slog.Int("port", cfg.Port),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
		slog.Bool("websocket_enabled", cfg.WebSocketEnabled),
		slog.Any("config_summary", envInfo))

	engineManager, err := manager.New(cfg, factory.StandardEngineFactory{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	engineManager.Start()

	port := cfg.Port
	if port <= 0 {
		slog.WarnContext(ctx, "invalid port in configuration, using default",
			slog.Int("configured_port", port),
			slog.Int("default_port", 6660))
		port = 6660
	}

	server := httpPkg.NewServer(cfg, port, engineManager)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "starting HTTP server",
			slog.Int("port", port),
			slog.String("environment", cfg.Environment),
			slog.Duration("read_timeout", cfg.ReadTimeout),
			slog.Duration("write_timeout", cfg.WriteTimeout),
			slog.Duration("idle_timeout", cfg.IdleTimeout))

		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "HTTP server failed to start",
				slog.Int("port", port),
				slog.String("error", err.Error()))
			serverErrCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	startupTimer := time.NewTimer(2 * time.Second)

	select {
	case err := <-serverErrCh:
		startupTimer.Stop()
		slog.ErrorContext(ctx, "server startup failed", slog.String("error", err.Error()))
		shutdownServer(server)
		engineManager.Shutdown()
		os.Exit(1)

	case <-startupTimer.C:
		slog.InfoContext(ctx, "server started successfully")

	case sig := <-quit:
		startupTimer.Stop()
		slog.InfoContext(ctx, "received shutdown signal during startup",
			slog.String("signal", sig.String()))
		shutdownServer(server)
		engineManager.Shutdown()
		return
	}

	sig := <-quit
	slog.InfoContext(ctx, "received shutdown signal",
		slog.String("signal", sig.String()),
		slog.Duration("shutdown_timeout", cfg.ShutdownTimeout))

	cancel()

	shutdownServer(server)

	slog.InfoContext(ctx, "shutting down manager")
	engineManager.Shutdown()
	slog.InfoContext(ctx, "manager shutdown completed")

	<-time.After(cfg.ShutdownGrace)
	slog.InfoContext(ctx, "graceful shutdown completed",
		slog.Duration("grace_period", cfg.ShutdownGrace))
}

// shutdownServer gracefully shuts down the HTTP server.
func shutdownServer(server *httpPkg.Server) {
	slog.Info("shutting down HTTP server gracefully")
	if err := server.Shutdown(); err != nil {
		slog.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		slog.Info("HTTP server shutdown completed")
	}
}
