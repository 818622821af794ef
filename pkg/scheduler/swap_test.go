package scheduler

import (
	"testing"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/models"
)

func swapFixture(t *testing.T) (*models.Matrix, *models.Matrix) {
	t.Helper()
	avail := mustMatrix(t, []string{"Alice", "Bob", "Carol"}, []string{"Mon", "Tue"}, map[string]map[string]int{
		"Alice": {"Mon": 1, "Tue": 1},
		"Bob":   {"Mon": 1, "Tue": 0},
		"Carol": {"Mon": 1, "Tue": 1},
	})
	sched := mustMatrix(t, []string{"Alice", "Bob", "Carol"}, []string{"Mon", "Tue"}, map[string]map[string]int{
		"Alice": {"Mon": 1, "Tue": 1},
	})
	return sched, avail
}

func TestTrySwap_Accepted(t *testing.T) {
	sched, avail := swapFixture(t)

	res, err := TrySwap(sched, avail, "Alice", "Bob", "Mon")
	if err != nil {
		t.Fatalf("TrySwap() error = %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected swap to be accepted, reason %q", res.Reason)
	}
	if sched.Get("Alice", "Mon") || !sched.Get("Bob", "Mon") {
		t.Error("Mon assignment was not exchanged")
	}
	if !sched.Get("Alice", "Tue") {
		t.Error("unrelated cell changed")
	}
}

func TestTrySwap_SelfInverse(t *testing.T) {
	sched, avail := swapFixture(t)
	original := snapshot(t, sched)

	first, err := TrySwap(sched, avail, "Alice", "Carol", "Tue")
	if err != nil || !first.Accepted {
		t.Fatalf("first swap: accepted=%v err=%v", first.Accepted, err)
	}
	second, err := TrySwap(sched, avail, "Alice", "Carol", "Tue")
	if err != nil || !second.Accepted {
		t.Fatalf("second swap: accepted=%v err=%v", second.Accepted, err)
	}
	if !sched.Equal(original) {
		t.Error("swapping twice did not restore the schedule")
	}
}

func TestTrySwap_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		empA, empB string
		shift      string
		want       RejectReason
	}{
		{"both unassigned", "Bob", "Carol", "Mon", ReasonNoAsymmetry},
		{"one side unavailable", "Alice", "Bob", "Tue", ReasonUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, avail := swapFixture(t)
			before := snapshot(t, sched)

			res, err := TrySwap(sched, avail, tt.empA, tt.empB, tt.shift)
			if err != nil {
				t.Fatalf("TrySwap() error = %v", err)
			}
			if res.Accepted {
				t.Fatal("expected rejection")
			}
			if res.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.want)
			}
			if res.Reason.Message() == "" {
				t.Error("rejection should carry a message")
			}
			if !sched.Equal(before) {
				t.Error("rejected swap modified the schedule")
			}
		})
	}
}

func TestTrySwap_BothAssignedRejected(t *testing.T) {
	avail := mustMatrix(t, []string{"Alice", "Bob"}, []string{"Mon"}, map[string]map[string]int{
		"Alice": {"Mon": 1},
		"Bob":   {"Mon": 1},
	})
	sched := mustMatrix(t, []string{"Alice", "Bob"}, []string{"Mon"}, map[string]map[string]int{
		"Alice": {"Mon": 1},
		"Bob":   {"Mon": 1},
	})

	res, err := TrySwap(sched, avail, "Alice", "Bob", "Mon")
	if err != nil {
		t.Fatalf("TrySwap() error = %v", err)
	}
	if res.Accepted || res.Reason != ReasonNoAsymmetry {
		t.Errorf("got %+v, want no_asymmetry rejection", res)
	}
}

func TestTrySwap_UnavailableEvenWhenAsymmetric(t *testing.T) {
	avail := mustMatrix(t, []string{"Alice", "Bob"}, []string{"Mon"}, map[string]map[string]int{
		"Alice": {"Mon": 0},
		"Bob":   {"Mon": 1},
	})
	sched := mustMatrix(t, []string{"Alice", "Bob"}, []string{"Mon"}, map[string]map[string]int{
		"Alice": {"Mon": 1},
	})

	res, _ := TrySwap(sched, avail, "Alice", "Bob", "Mon")
	if res.Accepted || res.Reason != ReasonUnavailable {
		t.Errorf("got %+v, want unavailable rejection", res)
	}
	if !sched.Get("Alice", "Mon") {
		t.Error("schedule changed on rejection")
	}
}

func TestTrySwap_InvalidInput(t *testing.T) {
	sched, avail := swapFixture(t)
	other := mustMatrix(t, []string{"Alice", "Bob"}, []string{"Mon", "Tue"}, nil)

	tests := []struct {
		name       string
		schedule   *models.Matrix
		empA, empB string
		shift      string
	}{
		{"self swap", sched, "Alice", "Alice", "Mon"},
		{"unknown employee", sched, "Alice", "Dave", "Mon"},
		{"unknown shift", sched, "Alice", "Bob", "Sun"},
		{"shape mismatch", other, "Alice", "Bob", "Mon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := snapshot(t, tt.schedule)
			_, err := TrySwap(tt.schedule, avail, tt.empA, tt.empB, tt.shift)
			if !errors.Is(err, errors.CodeInvalidInput) {
				t.Errorf("TrySwap() error = %v, want INVALID_INPUT", err)
			}
			if !tt.schedule.Equal(before) {
				t.Error("invalid input modified the schedule")
			}
		})
	}
}

func TestTrySwap_DoesNotEnforceCaps(t *testing.T) {
	sched, avail := swapFixture(t)
	caps := map[string]int{"Alice": 2, "Bob": 1, "Carol": 0}

	res, err := TrySwap(sched, avail, "Alice", "Carol", "Mon")
	if err != nil || !res.Accepted {
		t.Fatalf("accepted=%v err=%v", res.Accepted, err)
	}

	v := CapViolations(sched, caps)
	if len(v) != 1 || v[0].Employee != "Carol" || v[0].Load != 1 || v[0].Cap != 0 {
		t.Errorf("CapViolations() = %+v, want Carol 1/0", v)
	}
}
