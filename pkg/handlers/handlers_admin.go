package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		respondError(c, errors.New(errors.CodeUnauthorized, "Invalid credentials"))
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		respondError(c, errors.New(errors.CodeUnauthorized, "Invalid credentials"))
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInternal, "Could not create token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey issues a new HMAC-signed API key
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" {
		respondError(c, errors.InvalidInput("name", "name is required"))
		return
	}
	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	key := h.Auth.GenerateAPIKey(req.Name)

	var existing database.APIKey
	err := h.DB.Where(&database.APIKey{Key: key}).First(&existing).Error
	if err == nil && existing.RevokedAt == nil {
		respondError(c, errors.New(errors.CodeConflict, "a key already exists for this name"))
		return
	}
	if err == nil {
		// Keys are derived from the name, so re-issuing reinstates the
		// revoked record and keeps its usage history and sessions.
		err = h.DB.Model(&existing).Updates(map[string]interface{}{
			"revoked_at": nil,
			"rate_limit": req.RateLimit,
		}).Error
		if err != nil {
			respondError(c, errors.Wrap(err, errors.CodeDatabase, "Could not reinstate key"))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         existing.ID,
			"name":       req.Name,
			"key":        key,
			"reinstated": true,
		})
		return
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, errors.Wrap(err, errors.CodeDatabase, "Could not look up key"))
		return
	}

	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: auth.KeyPreview(key),
		RateLimit:  req.RateLimit,
	}
	if err := h.DB.Create(&apiKey).Error; err != nil {
		respondError(c, errors.Wrap(err, errors.CodeDatabase, "Could not create key record"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("id").Find(&keys).Error; err != nil {
		respondError(c, errors.Wrap(err, errors.CodeDatabase, "Could not list keys"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey marks an API key as revoked. The record stays so the key
// cannot be silently re-registered on its next use.
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	tx := h.DB.Model(&database.APIKey{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now())
	if tx.Error != nil {
		respondError(c, errors.Wrap(tx.Error, errors.CodeDatabase, "Could not revoke key"))
		return
	}
	if tx.RowsAffected == 0 {
		respondError(c, errors.NotFound("key", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// JSON body first, then query string.
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			respondError(c, errors.InvalidInput("rate_limit", "rate_limit is required"))
			return
		}
	}
	if req.RateLimit <= 0 {
		respondError(c, errors.InvalidInput("rate_limit", "must be positive"))
		return
	}

	tx := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit)
	if tx.Error != nil {
		respondError(c, errors.Wrap(tx.Error, errors.CodeDatabase, "Could not update key limit"))
		return
	}
	if tx.RowsAffected == 0 {
		respondError(c, errors.NotFound("key", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		respondError(c, errors.Wrap(err, errors.CodeDatabase, "Could not fetch usage"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
