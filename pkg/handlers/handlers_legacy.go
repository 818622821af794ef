package handlers

import (
	"net/http"

	"github.com/arnavshah/roster-api-go/pkg/ingest"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// Request bodies of the first API version. Availability is a list of
// Employee/MaxHoursPerWeek/<shift> records and schedules are keyed by
// shift, then by employee.
type legacyGenerateRequest struct {
	Availability []models.Record `json:"availability"`
	Seed         *int64          `json:"seed,omitempty"`
}

type legacySwapRequest struct {
	Schedule     models.ColumnTable `json:"schedule"`
	Availability []models.Record    `json:"availability"`
	Emp1         string             `json:"emp1"`
	Emp2         string             `json:"emp2"`
	Shift        string             `json:"shift"`
}

type legacyResetRequest struct {
	Original models.ColumnTable `json:"original"`
}

const legacySwapRejected = "Swap not allowed (availability or schedule mismatch)"

// LegacyGenerate solves availability records and answers with a
// shift-keyed schedule.
func (h *Handler) LegacyGenerate(c *gin.Context) {
	var req legacyGenerateRequest
	if !bindJSON(c, &req) {
		return
	}

	in, err := ingest.FromRecords(req.Availability)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.solve(c.Request.Context(), models.ScheduleRequest{Availability: in, Seed: req.Seed})
	if err != nil {
		respondError(c, err)
		return
	}

	h.RecordUsage(c, usage{shifts: len(res.Schedule.Shifts), employees: len(res.Schedule.Employees)})
	c.JSON(http.StatusOK, gin.H{
		"schedule": res.Schedule.ToColumns(),
		"seed":     res.Seed,
	})
}

// LegacySwap applies the swap rule to a shift-keyed schedule.
func (h *Handler) LegacySwap(c *gin.Context) {
	var req legacySwapRequest
	if !bindJSON(c, &req) {
		return
	}

	in, err := ingest.FromRecords(req.Availability)
	if err != nil {
		respondError(c, err)
		return
	}
	avail, err := models.FromTable(in.Table)
	if err != nil {
		respondError(c, err)
		return
	}
	sched, err := models.FromTable(req.Schedule.Table())
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := scheduler.TrySwap(sched, avail, req.Emp1, req.Emp2, req.Shift)
	if err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, usage{swaps: 1})

	if !res.Accepted {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"reason":  string(res.Reason),
			"message": legacySwapRejected,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "schedule": sched.ToColumns()})
}

// LegacyReset returns the shift-keyed original after checking it.
func (h *Handler) LegacyReset(c *gin.Context) {
	var req legacyResetRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := models.FromTable(req.Original.Table()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": req.Original})
}
