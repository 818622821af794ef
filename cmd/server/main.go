package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/handlers"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logger.Init(logCfg)

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init failed")
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error().Err(err).Msg("could not create admin user")
	}

	h := handlers.New(db, cfg)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(h),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("version", handlers.Version).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}

	logger.Info().Msg("server stopped")
}
