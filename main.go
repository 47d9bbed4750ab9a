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

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/handlers"
	"github.com/chaos-io/cutout/monitor"
	"github.com/chaos-io/cutout/rembg"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	var opts []handlers.Option
	if cfg.HasAPIKey() {
		remover := rembg.NewRemoveBG(cfg.APIKey,
			rembg.WithBaseURL(cfg.APIURL),
			rembg.WithTimeout(cfg.ProviderTimeout),
		)
		opts = append(opts, handlers.WithRemover(remover))

		if cfg.AccountCheckSchedule != "" {
			m := monitor.NewAccountMonitor(remover, cfg.LowCreditsThreshold, logger)
			if err := m.Start(cfg.AccountCheckSchedule); err != nil {
				logger.Error("failed to start account monitor", "error", err)
				os.Exit(1)
			}
			defer m.Stop()
		}
	} else {
		logger.Warn("REMOVE_BG_API_KEY not set, serving the local fallback transform")
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(cfg, logger, opts...),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", server.Addr, "provider", cfg.HasAPIKey())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exiting")
}
