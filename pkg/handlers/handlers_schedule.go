package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/ingest"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// solve runs the solver for a request under the configured deadline.
func (h *Handler) solve(ctx context.Context, req models.ScheduleRequest) (*scheduler.Result, error) {
	avail, err := models.FromTable(req.Availability.Table)
	if err != nil {
		return nil, err
	}

	solver := scheduler.NewRandomSolver()
	if req.Seed != nil {
		solver = scheduler.NewSolver(*req.Seed)
	}

	attempts := req.Attempts
	if attempts < 1 {
		attempts = 1
	}
	if limit := h.Cfg.SolveMaxAttempts; limit > 0 && attempts > limit {
		attempts = limit
	}

	ctx, cancel := context.WithTimeout(ctx, h.Cfg.SolveTimeout)
	defer cancel()
	return solver.SolveBest(ctx, avail, req.Availability.MaxHoursPerWeek, attempts)
}

func toResponse(res *scheduler.Result) models.ScheduleResponse {
	unfilled := res.Unfilled
	if unfilled == nil {
		unfilled = []models.UnfilledShift{}
	}
	return models.ScheduleResponse{
		Schedule:      res.Schedule.ToTable(),
		Seed:          res.Seed,
		Order:         res.Order,
		Attempts:      res.Attempts,
		Unfilled:      unfilled,
		Loads:         res.Loads,
		FairnessScore: res.FairnessScore,
	}
}

// readUpload parses the multipart "file" field as an availability CSV.
func readUpload(c *gin.Context) (models.AvailabilityInput, []map[string]string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return models.AvailabilityInput{}, nil, errors.InvalidInput("file", "a CSV file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return models.AvailabilityInput{}, nil, errors.Wrap(err, errors.CodeInternal, "failed to open uploaded file")
	}
	defer f.Close()
	return ingest.ReadAvailability(f)
}

// Preview parses an uploaded availability CSV without solving it.
func (h *Handler) Preview(c *gin.Context) {
	in, rows, err := readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []map[string]string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"availability": in,
		"preview":      rows,
	})
}

// ScheduleJSON handles the JSON-based scheduling request
func (h *Handler) ScheduleJSON(c *gin.Context) {
	var req models.ScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.solve(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.RecordUsage(c, usage{shifts: len(res.Schedule.Shifts), employees: len(res.Schedule.Employees)})
	c.JSON(http.StatusOK, toResponse(res))
}

// ScheduleCSV handles CSV file uploads for scheduling
func (h *Handler) ScheduleCSV(c *gin.Context) {
	in, _, err := readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	req := models.ScheduleRequest{Availability: in}
	if v := strings.TrimSpace(c.PostForm("seed")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, errors.InvalidInput("seed", "must be an integer"))
			return
		}
		req.Seed = &seed
	}
	if v := strings.TrimSpace(c.PostForm("attempts")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, errors.InvalidInput("attempts", "must be an integer"))
			return
		}
		req.Attempts = n
	}

	res, err := h.solve(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	var out strings.Builder
	if err := ingest.WriteSchedule(&out, res.Schedule); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInternal, "failed to export schedule"))
		return
	}

	h.RecordUsage(c, usage{shifts: len(res.Schedule.Shifts), employees: len(res.Schedule.Employees)})
	resp := toResponse(res)
	resp.CSV = out.String()
	c.JSON(http.StatusOK, resp)
}

// Swap exchanges two employees' assignment for one shift on a schedule
// supplied by the caller. Rejections are reported with success=false and
// the schedule echoed back unchanged.
func (h *Handler) Swap(c *gin.Context) {
	var req models.SwapRequest
	if !bindJSON(c, &req) {
		return
	}

	sched, err := models.FromTable(req.Schedule)
	if err != nil {
		respondError(c, err)
		return
	}
	avail, err := models.FromTable(req.Availability.Table)
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
		c.JSON(http.StatusOK, models.SwapResponse{
			Success:  false,
			Reason:   string(res.Reason),
			Message:  res.Reason.Message(),
			Schedule: req.Schedule,
		})
		return
	}

	resp := models.SwapResponse{Success: true, Schedule: sched.ToTable()}
	if len(req.Availability.MaxHoursPerWeek) > 0 {
		resp.Warnings = scheduler.CapViolations(sched, req.Availability.MaxHoursPerWeek)
	}
	c.JSON(http.StatusOK, resp)
}

// Reset returns the caller's original schedule after checking it is a
// well-formed table.
func (h *Handler) Reset(c *gin.Context) {
	var req models.ResetRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := models.FromTable(req.Original); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": req.Original})
}
