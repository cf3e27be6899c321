// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yalgud-dairy/orders-admin/internal/api"
	"github.com/yalgud-dairy/orders-admin/internal/cache"
	"github.com/yalgud-dairy/orders-admin/internal/config"
	"github.com/yalgud-dairy/orders-admin/internal/domain"
	"github.com/yalgud-dairy/orders-admin/internal/orderapi"
	"github.com/yalgud-dairy/orders-admin/internal/service"
	"github.com/yalgud-dairy/orders-admin/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Snapshot cache (no-op unless enabled)
	snapshotCache, err := cache.NewOrderSnapshotCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("snapshot cache unavailable, continuing without it")
		snapshotCache = cache.NewNoopOrderSnapshotCache()
	}

	// Upstream client and service
	client := orderapi.New(cfg.OrderAPI.BaseURL, cfg.OrderAPI.Timeout)
	orders := service.NewOrderService(client, domain.StatusAccepted, service.WithCache(snapshotCache))

	// HTTP server
	router := api.NewRouter(orders, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("upstream", cfg.OrderAPI.BaseURL).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
