package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"testing"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/models"
)

func mustMatrix(t *testing.T, employees, shifts []string, cells map[string]map[string]int) *models.Matrix {
	t.Helper()
	m, err := models.FromTable(models.Table{Employees: employees, Shifts: shifts, Cells: cells})
	if err != nil {
		t.Fatalf("FromTable() error = %v", err)
	}
	return m
}

// snapshot copies m through its wire form.
func snapshot(t *testing.T, m *models.Matrix) *models.Matrix {
	t.Helper()
	c, err := models.FromTable(m.ToTable())
	if err != nil {
		t.Fatalf("FromTable() error = %v", err)
	}
	return c
}

func aliceBob(t *testing.T) (*models.Matrix, map[string]int) {
	avail := mustMatrix(t, []string{"Alice", "Bob"}, []string{"Mon", "Tue"}, map[string]map[string]int{
		"Alice": {"Mon": 1, "Tue": 1},
		"Bob":   {"Mon": 1, "Tue": 0},
	})
	return avail, map[string]int{"Alice": 2, "Bob": 1}
}

func TestSolve_AliceBob(t *testing.T) {
	avail, caps := aliceBob(t)

	for seed := int64(0); seed < 20; seed++ {
		res, err := NewSolver(seed).Solve(avail, caps)
		if err != nil {
			t.Fatalf("seed %d: Solve() error = %v", seed, err)
		}
		sched := res.Schedule

		monHolders := 0
		for _, e := range []string{"Alice", "Bob"} {
			if sched.Get(e, "Mon") {
				monHolders++
			}
		}
		if monHolders != 1 {
			t.Errorf("seed %d: Mon has %d holders, want 1", seed, monHolders)
		}
		if !sched.Get(res.Order[0], "Mon") {
			t.Errorf("seed %d: Mon should go to first in order %v", seed, res.Order)
		}
		if !sched.Get("Alice", "Tue") || sched.Get("Bob", "Tue") {
			t.Errorf("seed %d: Tue should go to Alice only", seed)
		}
		if len(res.Unfilled) != 0 {
			t.Errorf("seed %d: unexpected unfilled shifts %v", seed, res.Unfilled)
		}
	}
}

func TestSolve_Deterministic(t *testing.T) {
	avail, caps := randomInput(rand.New(rand.NewSource(7)), 8, 14)

	a, err := NewSolver(42).Solve(avail, caps)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	b, err := NewSolver(42).Solve(avail, caps)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if !a.Schedule.Equal(b.Schedule) {
		t.Error("same seed produced different schedules")
	}
	for i := range a.Order {
		if a.Order[i] != b.Order[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", a.Order, b.Order)
		}
	}
}

func TestSolve_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for run := 0; run < 50; run++ {
		avail, caps := randomInput(rng, 1+rng.Intn(10), 1+rng.Intn(21))
		res, err := NewSolver(int64(run)).Solve(avail, caps)
		if err != nil {
			t.Fatalf("run %d: Solve() error = %v", run, err)
		}

		for _, e := range avail.Employees {
			if l := res.Schedule.Load(e); l > caps[e] {
				t.Errorf("run %d: %s has load %d over cap %d", run, e, l, caps[e])
			}
			for _, s := range avail.Shifts {
				if res.Schedule.Get(e, s) && !avail.Get(e, s) {
					t.Errorf("run %d: %s assigned to %s without availability", run, e, s)
				}
			}
		}

		for j, s := range avail.Shifts {
			holders := 0
			for _, e := range avail.Employees {
				if res.Schedule.Get(e, s) {
					holders++
				}
			}
			if holders > 1 {
				t.Errorf("run %d: shift %s has %d holders", run, s, holders)
			}
			if holders == 0 && !isUnfilled(res, s) {
				t.Errorf("run %d: empty shift %s missing from Unfilled", run, s)
			}
			if holders == 1 && !res.Schedule.ColumnFilled(j) {
				t.Errorf("run %d: ColumnFilled disagrees for %s", run, s)
			}
		}
	}
}

func TestSolve_BalancesLoad(t *testing.T) {
	shifts := []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	cells := map[string]map[string]int{}
	for _, e := range []string{"a", "b", "c"} {
		cells[e] = map[string]int{}
		for _, s := range shifts {
			cells[e][s] = 1
		}
	}
	avail := mustMatrix(t, []string{"a", "b", "c"}, shifts, cells)
	caps := map[string]int{"a": 10, "b": 10, "c": 10}

	res, err := NewSolver(3).Solve(avail, caps)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	for e, l := range res.Loads {
		if l != 2 {
			t.Errorf("%s load = %d, want 2", e, l)
		}
	}
	if res.FairnessScore != 100.0 {
		t.Errorf("FairnessScore = %f, want 100", res.FairnessScore)
	}
	// Rotation follows the permutation.
	for j, s := range shifts {
		if !res.Schedule.Get(res.Order[j%3], s) {
			t.Errorf("shift %s should go to %s", s, res.Order[j%3])
		}
	}
}

func TestSolve_ZeroCapAndUnfilled(t *testing.T) {
	avail := mustMatrix(t, []string{"Alice", "Bob", "Carol"}, []string{"Mon", "Tue"}, map[string]map[string]int{
		"Alice": {"Mon": 1},
		"Bob":   {"Mon": 1},
		"Carol": {"Mon": 1},
	})
	caps := map[string]int{"Alice": 0, "Bob": 0, "Carol": 1}

	res, err := NewSolver(9).Solve(avail, caps)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !res.Schedule.Get("Carol", "Mon") {
		t.Error("Mon should go to Carol, the only employee under cap")
	}
	if res.Schedule.Load("Alice") != 0 || res.Schedule.Load("Bob") != 0 {
		t.Error("zero-cap employees must not be assigned")
	}
	if len(res.Unfilled) != 1 || res.Unfilled[0].ShiftID != "Tue" {
		t.Fatalf("Unfilled = %v, want [Tue]", res.Unfilled)
	}
	want := "3 employees were unavailable"
	if got := res.Unfilled[0].Reasons; len(got) != 1 || got[0] != want {
		t.Errorf("Reasons = %v, want [%s]", got, want)
	}
}

func TestSolve_InvalidCaps(t *testing.T) {
	avail, _ := aliceBob(t)

	tests := []struct {
		name string
		caps map[string]int
	}{
		{"missing cap", map[string]int{"Alice": 2}},
		{"unknown employee", map[string]int{"Alice": 2, "Bob": 1, "Carol": 3}},
		{"negative cap", map[string]int{"Alice": 2, "Bob": -1}},
		{"disjoint", map[string]int{"Dan": 1, "Eve": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSolver(1).Solve(avail, tt.caps)
			if !errors.Is(err, errors.CodeInvalidInput) {
				t.Errorf("Solve() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestSolveBest(t *testing.T) {
	avail, caps := randomInput(rand.New(rand.NewSource(11)), 6, 12)

	single, err := NewSolver(100).Solve(avail, caps)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	best, err := NewSolver(100).SolveBest(context.Background(), avail, caps, 10)
	if err != nil {
		t.Fatalf("SolveBest() error = %v", err)
	}
	again, _ := NewSolver(100).SolveBest(context.Background(), avail, caps, 10)

	if len(best.Unfilled) > len(single.Unfilled) {
		t.Errorf("best run left %d shifts unfilled, first run only %d", len(best.Unfilled), len(single.Unfilled))
	}
	if best.Attempts < 1 || best.Attempts > 10 {
		t.Errorf("Attempts = %d, want 1..10", best.Attempts)
	}
	if best.Seed < 100 || best.Seed >= 110 {
		t.Errorf("Seed = %d, want in [100, 110)", best.Seed)
	}
	if !best.Schedule.Equal(again.Schedule) || best.Seed != again.Seed {
		t.Error("SolveBest is not deterministic for a fixed base seed")
	}
}

func TestSolveBest_DoneContextTimesOut(t *testing.T) {
	avail, caps := aliceBob(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewSolver(5).SolveBest(ctx, avail, caps, 50)
	if !errors.Is(err, errors.CodeTimeout) {
		t.Fatalf("SolveBest() error = %v, want TIMEOUT", err)
	}
	if res != nil {
		t.Errorf("SolveBest() result = %+v, want nil", res)
	}
	if errors.GetHTTPStatus(err) != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", errors.GetHTTPStatus(err))
	}
}

func TestFairnessScore(t *testing.T) {
	tests := []struct {
		name  string
		loads map[string]int
		want  float64
	}{
		{"empty", nil, 100},
		{"all zero", map[string]int{"a": 0, "b": 0}, 100},
		{"equal", map[string]int{"a": 3, "b": 3}, 100},
		{"skewed", map[string]int{"a": 2, "b": 0}, 0},
		{"mild", map[string]int{"a": 3, "b": 1}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FairnessScore(tt.loads); got != tt.want {
				t.Errorf("FairnessScore() = %f, want %f", got, tt.want)
			}
		})
	}
}

func randomInput(rng *rand.Rand, nEmp, nShift int) (*models.Matrix, map[string]int) {
	employees := make([]string, nEmp)
	shifts := make([]string, nShift)
	for i := range employees {
		employees[i] = fmt.Sprintf("emp%d", i)
	}
	for j := range shifts {
		shifts[j] = fmt.Sprintf("shift%d", j)
	}

	m, _ := models.NewMatrix(employees, shifts)
	caps := make(map[string]int, nEmp)
	for i, e := range employees {
		caps[e] = rng.Intn(5)
		for j := range shifts {
			m.SetAt(i, j, rng.Intn(3) > 0)
		}
	}
	return m, caps
}

func isUnfilled(res *Result, shift string) bool {
	for _, u := range res.Unfilled {
		if u.ShiftID == shift {
			return true
		}
	}
	return false
}
