package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the banner route.
const Version = "3.0.0"

// NewRouter builds the gin engine with every route of the service.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	// Admin interface - serve static files from embedded FS
	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Shift Assignment API",
			"version": Version,
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/preview", h.Preview)
		api.POST("/validate", h.ValidateInput)
		api.POST("/schedule", h.ScheduleJSON)
		api.POST("/schedule/csv", h.ScheduleCSV)
		api.POST("/swap", h.Swap)
		api.POST("/reset", h.Reset)

		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/swap", h.SessionSwap)
		api.POST("/sessions/:id/reset", h.SessionReset)
		api.DELETE("/sessions/:id", h.DeleteSession)

		api.GET("/usage", h.GetMyUsage)
	}

	// First API version: record availability, shift-keyed schedules
	r.POST("/preview", h.APIKeyMiddleware(), h.Preview)
	r.POST("/generate_schedule", h.APIKeyMiddleware(), h.LegacyGenerate)
	r.POST("/swap_shift", h.APIKeyMiddleware(), h.LegacySwap)
	r.POST("/reset_schedule", h.APIKeyMiddleware(), h.LegacyReset)

	return r
}
