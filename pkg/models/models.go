package models

// Table is the wire shape of a boolean employee x shift table. Cells hold
// 0 or 1; a missing cell reads as 0.
type Table struct {
	Employees []string                  `json:"employees"`
	Shifts    []string                  `json:"shifts"`
	Cells     map[string]map[string]int `json:"cells"`
}

// AvailabilityInput is an availability table plus the weekly cap of every
// employee, counted in shifts.
type AvailabilityInput struct {
	Table
	MaxHoursPerWeek map[string]int `json:"max_hours_per_week"`
}

// UnfilledShift explains why a shift was left without an assignee
type UnfilledShift struct {
	ShiftID string   `json:"shift_id"`
	Reasons []string `json:"reasons"`
}

// CapViolation reports an employee whose load exceeds their weekly cap.
type CapViolation struct {
	Employee string `json:"employee"`
	Load     int    `json:"load"`
	Cap      int    `json:"cap"`
}

// ScheduleRequest is the body of the solve endpoints.
type ScheduleRequest struct {
	Availability AvailabilityInput `json:"availability"`
	Seed         *int64            `json:"seed,omitempty"`
	Attempts     int               `json:"attempts,omitempty"`
}

// ScheduleResponse is the data structure for the scheduling result
type ScheduleResponse struct {
	SessionID     string          `json:"session_id,omitempty"`
	Schedule      Table           `json:"schedule"`
	Seed          int64           `json:"seed"`
	Order         []string        `json:"order"`
	Attempts      int             `json:"attempts"`
	Unfilled      []UnfilledShift `json:"unfilled"`
	Loads         map[string]int  `json:"loads"`
	FairnessScore float64         `json:"fairness_score"`
	CSV           string          `json:"csv,omitempty"`
}

// SwapRequest carries everything a stateless swap needs.
type SwapRequest struct {
	Schedule     Table             `json:"schedule"`
	Availability AvailabilityInput `json:"availability"`
	Emp1         string            `json:"emp1"`
	Emp2         string            `json:"emp2"`
	Shift        string            `json:"shift"`
}

// SessionSwapRequest names a swap against a stored session.
type SessionSwapRequest struct {
	Emp1  string `json:"emp1"`
	Emp2  string `json:"emp2"`
	Shift string `json:"shift"`
}

// SwapResponse is returned for accepted and rejected swaps alike.
type SwapResponse struct {
	Success  bool           `json:"success"`
	Reason   string         `json:"reason,omitempty"`
	Message  string         `json:"message,omitempty"`
	Schedule Table          `json:"schedule"`
	Version  int            `json:"version,omitempty"`
	Warnings []CapViolation `json:"warnings,omitempty"`
}

// ResetRequest returns the caller's original schedule.
type ResetRequest struct {
	Original Table `json:"original"`
}
