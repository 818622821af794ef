package handler

import (
	"net/http"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/handlers"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

var router http.Handler

func init() {
	// .env is only present under `vercel dev`
	config.LoadDotEnv()
	cfg := config.Load()

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = "json"
	logger.Init(logCfg)

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init failed")
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Error().Err(err).Msg("could not create admin user")
	}

	gin.SetMode(gin.ReleaseMode)
	router = handlers.NewRouter(handlers.New(db, cfg))
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r *http.Request) {
	router.ServeHTTP(w, r)
}
