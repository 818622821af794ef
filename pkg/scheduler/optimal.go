package scheduler

import (
	"context"

	"github.com/arnavshah/roster-api-go/pkg/errors"
	"github.com/arnavshah/roster-api-go/pkg/models"
)

// SolveBest runs Solve with seeds Seed, Seed+1, ... up to attempts times and
// keeps the result that fills the most shifts, then the fairest one, then
// the earliest. It stops once a run fills every shift with a perfect score,
// or when ctx is done, returning the best run so far. A ctx that is done
// before the first run yields a TIMEOUT error.
func (s *Solver) SolveBest(ctx context.Context, avail *models.Matrix, caps map[string]int, attempts int) (*Result, error) {
	if attempts < 1 {
		attempts = 1
	}

	var best *Result
	bestFilled := -1
	ran := 0

	for k := 0; k < attempts; k++ {
		if err := ctx.Err(); err != nil {
			if best == nil {
				return nil, errors.Wrap(err, errors.CodeTimeout, "solve deadline passed before the first attempt")
			}
			break
		}

		run := NewSolver(s.Seed + int64(k))
		run.log = s.log
		res, err := run.Solve(avail, caps)
		if err != nil {
			return nil, err
		}
		ran++

		filled := len(avail.Shifts) - len(res.Unfilled)
		if filled > bestFilled || (filled == bestFilled && res.FairnessScore > best.FairnessScore) {
			best = res
			bestFilled = filled
		}

		if bestFilled == len(avail.Shifts) && best.FairnessScore >= 100.0 {
			break
		}
	}

	best.Attempts = ran
	s.log.Debug().
		Int64("seed", best.Seed).
		Int("attempts", ran).
		Int("filled", bestFilled).
		Float64("fairness", best.FairnessScore).
		Msg("best schedule selected")
	return best, nil
}
