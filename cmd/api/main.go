// backend-go/cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modacentro/retail-dashboard/backend-go/internal/api"
	"github.com/modacentro/retail-dashboard/backend-go/internal/cache"
	"github.com/modacentro/retail-dashboard/backend-go/internal/config"
	"github.com/modacentro/retail-dashboard/backend-go/internal/drive"
	"github.com/modacentro/retail-dashboard/backend-go/internal/engine"
	"github.com/modacentro/retail-dashboard/backend-go/internal/repository/postgres"
	"github.com/modacentro/retail-dashboard/backend-go/internal/semaphore"
	"github.com/modacentro/retail-dashboard/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	sources := postgres.NewFactSources(db)

	mapping, err := cache.NewStoreMappingCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize store mapping cache")
	}

	alertCache, err := cache.NewAlertBatchCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Alert batch cache unavailable, running without it")
		alertCache = cache.NewNoopAlertBatchCache()
	}

	overrides := loadOverrides(cfg.Drive)

	eng := engine.New(engine.Sources{
		Products:  sources,
		Stock:     sources,
		Sales:     sources,
		Purchases: sources,
		Stores:    sources,
	}, mapping, alertCache, cfg.Engine, cfg.Alerts, overrides)

	router := api.NewRouter(eng, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

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

// loadOverrides pulls the operator override sheet from Drive when credentials
// are configured. Any failure degrades to defaults; the server still starts.
func loadOverrides(cfg config.DriveConfig) semaphore.Overrides {
	empty := semaphore.Overrides{
		Supplier: make(map[string]semaphore.Override),
		Category: make(map[string]semaphore.Override),
	}

	if cfg.CredentialsJSON == "" || cfg.OverridesFolder == "" {
		return empty
	}

	svc, err := drive.NewService(cfg.CredentialsJSON)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Drive unavailable, running with default thresholds")
		return empty
	}

	overrides, err := drive.LoadOverrides(svc, cfg.OverridesFolder)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Override sheet load failed, running with default thresholds")
		return empty
	}

	logger.Log.Info().
		Int("supplier_overrides", len(overrides.Supplier)).
		Int("category_overrides", len(overrides.Category)).
		Msg("Semaphore overrides loaded")
	return overrides
}
