package handlers

import (
	"net/http"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks an availability table without solving it.
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.AvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	avail, err := models.FromTable(input.Table)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	if len(avail.Employees) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one employee is required"})
		return
	}
	if len(avail.Shifts) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one shift is required"})
		return
	}

	if err := scheduler.ValidateCaps(avail, input.MaxHoursPerWeek); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	availableCells, capacity := 0, 0
	uncovered := []string{}
	for j, s := range avail.Shifts {
		if !avail.ColumnFilled(j) {
			uncovered = append(uncovered, s)
		}
	}
	for _, n := range avail.Loads() {
		availableCells += n
	}
	for _, limit := range input.MaxHoursPerWeek {
		capacity += limit
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"employee_count":   len(avail.Employees),
			"shift_count":      len(avail.Shifts),
			"available_cells":  availableCells,
			"total_capacity":   capacity,
			"uncovered_shifts": uncovered,
		},
	})
}
