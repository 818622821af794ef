package scheduler

import (
	"fmt"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/models"
)

// RejectReason names the swap clause that failed.
type RejectReason string

const (
	ReasonNoAsymmetry RejectReason = "no_asymmetry"
	ReasonUnavailable RejectReason = "unavailable"
)

// Message is a human readable explanation of the rejection.
func (r RejectReason) Message() string {
	switch r {
	case ReasonNoAsymmetry:
		return "Swap not allowed: both employees have the same assignment for this shift"
	case ReasonUnavailable:
		return "Swap not allowed: both employees must be available for this shift"
	default:
		return ""
	}
}

// SwapResult reports whether a swap was applied.
type SwapResult struct {
	Accepted bool
	Reason   RejectReason
}

// TrySwap exchanges the assignment of empA and empB for shift in schedule.
//
// The swap is applied only when exactly one of the two holds the shift and
// both are available for it. A rejected swap leaves schedule untouched.
// Weekly caps are not re-checked; use CapViolations to inspect the result.
//
// Malformed input (self-swap, unknown identifiers, matrices over different
// employees or shifts) returns an INVALID_INPUT error before any change.
func TrySwap(schedule, avail *models.Matrix, empA, empB, shift string) (SwapResult, error) {
	if schedule == nil || avail == nil {
		return SwapResult{}, errors.InvalidInput("schedule", "schedule and availability are required")
	}
	if empA == empB {
		return SwapResult{}, errors.InvalidInput("emp2", fmt.Sprintf("cannot swap %s with themselves", empA))
	}
	if !schedule.SameShape(avail) {
		return SwapResult{}, errors.InvalidInput("schedule", "schedule and availability cover different employees or shifts")
	}
	for _, e := range []string{empA, empB} {
		if !schedule.HasEmployee(e) || !avail.HasEmployee(e) {
			return SwapResult{}, errors.InvalidInput("employee", "unknown employee "+e)
		}
	}
	if !schedule.HasShift(shift) || !avail.HasShift(shift) {
		return SwapResult{}, errors.InvalidInput("shift", "unknown shift "+shift)
	}

	va := schedule.Get(empA, shift)
	vb := schedule.Get(empB, shift)
	if va == vb {
		return SwapResult{Reason: ReasonNoAsymmetry}, nil
	}
	if !avail.Get(empA, shift) || !avail.Get(empB, shift) {
		return SwapResult{Reason: ReasonUnavailable}, nil
	}

	ia, _ := schedule.EmployeeIndex(empA)
	ib, _ := schedule.EmployeeIndex(empB)
	j, _ := schedule.ShiftIndex(shift)
	schedule.SetAt(ia, j, vb)
	schedule.SetAt(ib, j, va)

	return SwapResult{Accepted: true}, nil
}
