package handlers

import (
	"net/http"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/store"
	"github.com/gin-gonic/gin"
)

// ownedSession loads the session named in the path and checks that it
// belongs to the calling key. Foreign sessions read as not found.
func (h *Handler) ownedSession(c *gin.Context) (*store.Session, bool) {
	id := c.Param("id")
	sess, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if key := currentKey(c); key != nil && sess.KeyID != key.ID {
		respondError(c, errors.NotFound("session", id))
		return nil, false
	}
	return sess, true
}

// CreateSession solves a schedule and stores it for later swaps and reset.
func (h *Handler) CreateSession(c *gin.Context) {
	var req models.ScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.solve(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	sess := &store.Session{
		Availability: req.Availability,
		Original:     res.Schedule.ToTable(),
		Current:      res.Schedule.ToTable(),
		Seed:         res.Seed,
	}
	if key := currentKey(c); key != nil {
		sess.KeyID = key.ID
	}
	if err := h.Store.Create(c.Request.Context(), sess); err != nil {
		respondError(c, err)
		return
	}

	h.RecordUsage(c, usage{shifts: len(res.Schedule.Shifts), employees: len(res.Schedule.Employees)})
	resp := toResponse(res)
	resp.SessionID = sess.ID
	c.JSON(http.StatusCreated, resp)
}

// GetSession returns the current and original schedule of a session.
func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":   sess.ID,
		"schedule":     sess.Current,
		"original":     sess.Original,
		"availability": sess.Availability,
		"seed":         sess.Seed,
		"version":      sess.Version,
		"modified":     sess.Modified(),
		"created_at":   sess.CreatedAt,
		"updated_at":   sess.UpdatedAt,
	})
}

// SessionSwap swaps two employees on the session's current schedule.
func (h *Handler) SessionSwap(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}
	var req models.SessionSwapRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.Store.Swap(c.Request.Context(), c.Param("id"), req.Emp1, req.Emp2, req.Shift)
	if err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, usage{swaps: 1})

	resp := models.SwapResponse{
		Success:  out.Result.Accepted,
		Schedule: out.Session.Current,
		Version:  out.Session.Version,
		Warnings: out.Warnings,
	}
	if !out.Result.Accepted {
		resp.Reason = string(out.Result.Reason)
		resp.Message = out.Result.Reason.Message()
	}
	c.JSON(http.StatusOK, resp)
}

// SessionReset discards all swaps of a session.
func (h *Handler) SessionReset(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}
	sess, err := h.Store.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"schedule":   sess.Current,
		"version":    sess.Version,
	})
}

// DeleteSession removes a session.
func (h *Handler) DeleteSession(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}
	if err := h.Store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}
