package scheduler

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/rs/zerolog"
)

// Solver assigns employees to shifts with a greedy, load-balanced pass.
//
// Ties between candidates with the same load are broken by a random
// permutation of the roster drawn from Seed, so two solves with the same
// seed over the same input produce the same schedule.
type Solver struct {
	Seed int64
	log  zerolog.Logger
}

// Result is the outcome of a solve.
type Result struct {
	Schedule      *models.Matrix
	Seed          int64
	Order         []string
	Unfilled      []models.UnfilledShift
	Loads         map[string]int
	FairnessScore float64
	Attempts      int
}

// NewSolver creates a solver with a fixed seed.
func NewSolver(seed int64) *Solver {
	return &Solver{
		Seed: seed,
		log:  logger.WithComponent("scheduler"),
	}
}

// NewRandomSolver creates a solver seeded from the clock.
func NewRandomSolver() *Solver {
	return NewSolver(time.Now().UnixNano())
}

// Solve builds a schedule from availability and weekly caps.
//
// Shifts are processed in declared order. Each shift goes to the available
// employee with the fewest assigned shifts whose load is still below their
// cap; ties go to whoever comes first in the permuted roster. A shift with
// no such employee stays empty and is listed in Result.Unfilled.
func (s *Solver) Solve(avail *models.Matrix, caps map[string]int) (*Result, error) {
	if err := ValidateCaps(avail, caps); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.Seed))
	order := rng.Perm(len(avail.Employees))

	schedule, err := models.NewMatrix(avail.Employees, avail.Shifts)
	if err != nil {
		return nil, err
	}

	limits := make([]int, len(avail.Employees))
	for i, e := range avail.Employees {
		limits[i] = caps[e]
	}
	loads := make([]int, len(avail.Employees))

	var unfilled []models.UnfilledShift
	for j, shiftID := range avail.Shifts {
		best := -1
		unavailable, atCap := 0, 0

		for _, i := range order {
			if !avail.At(i, j) {
				unavailable++
				continue
			}
			if loads[i] >= limits[i] {
				atCap++
				continue
			}
			// Strict comparison keeps the earliest candidate in permutation order.
			if best == -1 || loads[i] < loads[best] {
				best = i
			}
		}

		if best == -1 {
			unfilled = append(unfilled, models.UnfilledShift{
				ShiftID: shiftID,
				Reasons: unfilledReasons(unavailable, atCap),
			})
			continue
		}

		schedule.SetAt(best, j, true)
		loads[best]++
	}

	names := make([]string, len(order))
	for k, i := range order {
		names[k] = avail.Employees[i]
	}
	loadMap := schedule.Loads()

	s.log.Debug().
		Int64("seed", s.Seed).
		Int("employees", len(avail.Employees)).
		Int("shifts", len(avail.Shifts)).
		Int("unfilled", len(unfilled)).
		Msg("schedule solved")

	return &Result{
		Schedule:      schedule,
		Seed:          s.Seed,
		Order:         names,
		Unfilled:      unfilled,
		Loads:         loadMap,
		FairnessScore: FairnessScore(loadMap),
		Attempts:      1,
	}, nil
}

func unfilledReasons(unavailable, atCap int) []string {
	var reasons []string
	if atCap > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees were at max hours", atCap))
	}
	if unavailable > 0 {
		reasons = append(reasons, fmt.Sprintf("%d employees were unavailable", unavailable))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no employees on the roster")
	}
	return reasons
}

// ValidateCaps checks that caps cover exactly the employees of avail and
// that no cap is negative.
func ValidateCaps(avail *models.Matrix, caps map[string]int) error {
	if avail == nil {
		return errors.InvalidInput("availability", "missing")
	}
	for _, e := range avail.Employees {
		c, ok := caps[e]
		if !ok {
			return errors.InvalidInput("max_hours_per_week", "missing cap for employee "+e)
		}
		if c < 0 {
			return errors.InvalidInput("max_hours_per_week", fmt.Sprintf("negative cap %d for employee %s", c, e))
		}
	}
	for e := range caps {
		if !avail.HasEmployee(e) {
			return errors.InvalidInput("max_hours_per_week", "cap given for unknown employee "+e)
		}
	}
	return nil
}

// FairnessScore returns a percentage (0-100) of how evenly shifts are
// spread. 100 means every employee carries the same load.
func FairnessScore(loads map[string]int) float64 {
	if len(loads) == 0 {
		return 100.0
	}

	var sum float64
	for _, l := range loads {
		sum += float64(l)
	}
	if sum == 0 {
		return 100.0
	}

	n := float64(len(loads))
	mean := sum / n

	var varianceSum float64
	for _, l := range loads {
		diff := float64(l) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / n)

	score := (1.0 - stdDev/mean) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

// CapViolations lists employees whose load in schedule exceeds their cap,
// in roster order. Employees without a cap are skipped.
func CapViolations(schedule *models.Matrix, caps map[string]int) []models.CapViolation {
	var out []models.CapViolation
	for _, e := range schedule.Employees {
		c, ok := caps[e]
		if !ok {
			continue
		}
		if l := schedule.Load(e); l > c {
			out = append(out, models.CapViolation{Employee: e, Load: l, Cap: c})
		}
	}
	return out
}
