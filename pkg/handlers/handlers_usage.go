package handlers

import (
	"net/http"

	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/gin-gonic/gin"
)

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey := currentKey(c)
	if apiKey == nil {
		respondError(c, errors.New(errors.CodeInternal, "API Key context missing"))
		return
	}

	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", apiKey.ID).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		respondError(c, errors.Wrap(err, errors.CodeDatabase, "Could not fetch usage details"))
		return
	}

	var totalRequests, totalShifts, totalEmployees, totalSwaps int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalShifts += int64(u.TotalShifts)
		totalEmployees += int64(u.TotalEmployees)
		totalSwaps += int64(u.TotalSwaps)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":  totalRequests,
			"shifts":    totalShifts,
			"employees": totalEmployees,
			"swaps":     totalSwaps,
		},
	})
}
