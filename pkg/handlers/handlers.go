package handlers

import (
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/arnavshah/roster-api-go/pkg/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed static/*
var staticEmbed embed.FS

// Handler contains dependencies for the route handlers
type Handler struct {
	DB    *gorm.DB
	Store store.SessionStore
	Auth  *auth.Authenticator
	Cfg   *config.Config
}

// New wires a Handler with a gorm-backed session store.
func New(db *gorm.DB, cfg *config.Config) *Handler {
	return &Handler{
		DB:    db,
		Store: store.NewGormStore(db, cfg.SwapMaxRetries),
		Auth:  auth.New(cfg),
		Cfg:   cfg,
	}
}

// usage counts the work done by one request.
type usage struct {
	shifts    int
	employees int
	swaps     int
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// respondError renders err as {"error": {...}} with its mapped status.
func respondError(c *gin.Context, err error) {
	status := errors.GetHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("code", string(errors.GetCode(err))).
			Str("path", c.FullPath()).
			Msg("request failed")
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.Wrap(err, errors.CodeInternal, "internal error")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": appErr})
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, errors.InvalidInput("body", err.Error()))
		return false
	}
	return true
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			respondError(c, errors.New(errors.CodeUnauthorized, "Authorization header required"))
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			respondError(c, errors.New(errors.CodeUnauthorized, "Invalid token"))
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key for scheduler routes,
// enforces the key's daily request limit and counts the request.
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			respondError(c, errors.New(errors.CodeUnauthorized, "API Key required"))
			return
		}

		userID, err := h.Auth.VerifyAPIKey(key)
		if err != nil {
			respondError(c, errors.New(errors.CodeUnauthorized, "Invalid API Key signature"))
			return
		}

		apiKey, err := auth.TrackAPIKey(h.DB, key, userID)
		if stderrors.Is(err, auth.ErrKeyRevoked) {
			respondError(c, errors.New(errors.CodeUnauthorized, "API Key has been revoked"))
			return
		}
		if err != nil {
			respondError(c, errors.Wrap(err, errors.CodeDatabase, "could not load API key"))
			return
		}

		var today database.APIUsage
		err = h.DB.Where("key_id = ? AND date = ?", apiKey.ID, usageDate()).Limit(1).Find(&today).Error
		if err == nil && apiKey.RateLimit > 0 && today.RequestCount >= apiKey.RateLimit {
			respondError(c, errors.New(errors.CodeRateLimited, "daily request limit reached").
				WithDetails(fmt.Sprintf("limit is %d requests per day", apiKey.RateLimit)))
			return
		}

		c.Set("apiKey", apiKey)
		c.Set("userID", userID)
		h.addUsage(apiKey.ID, 1, usage{})
		c.Next()
	}
}

func currentKey(c *gin.Context) *database.APIKey {
	raw, ok := c.Get("apiKey")
	if !ok {
		return nil
	}
	key, _ := raw.(*database.APIKey)
	return key
}

func usageDate() string {
	return time.Now().Format("2006-01-02")
}

// RecordUsage adds the work done by a request to today's totals. The
// request itself is counted by APIKeyMiddleware.
func (h *Handler) RecordUsage(c *gin.Context, u usage) {
	apiKey := currentKey(c)
	if apiKey == nil {
		return
	}
	h.addUsage(apiKey.ID, 0, u)
}

// addUsage upserts today's usage row, supported by both Postgres and SQLite.
func (h *Handler) addUsage(keyID uint, requests int, u usage) {
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + ?", requests),
			"total_shifts":    gorm.Expr("total_shifts + ?", u.shifts),
			"total_employees": gorm.Expr("total_employees + ?", u.employees),
			"total_swaps":     gorm.Expr("total_swaps + ?", u.swaps),
		}),
	}).Create(&database.APIUsage{
		KeyID:          keyID,
		Date:           usageDate(),
		RequestCount:   requests,
		TotalShifts:    u.shifts,
		TotalEmployees: u.employees,
		TotalSwaps:     u.swaps,
	}).Error
	if err != nil {
		logger.Warn().Err(err).Uint("key_id", keyID).Msg("failed to record usage")
	}
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	log := logger.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// AdminInterface serves the admin web interface from embedded files
func (h *Handler) AdminInterface(c *gin.Context) {
	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		respondError(c, errors.NotFound("file", "static/index.html"))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
