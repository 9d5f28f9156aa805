package ops

import (
	"context"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// SolveInput contains parameters for the Solve operation.
type SolveInput struct {
	ID int64
	// Force regenerates solutions for a record that already has them.
	Force bool
}

// SolveOutput contains the record with its care solutions.
type SolveOutput struct {
	Laundry laundry.Laundry `json:"laundry"`
	Cached  bool            `json:"cached"`
}

// Solve fetches care solutions for one stored record and saves them on it.
// Records that already carry solutions are returned as-is unless Force is set.
func Solve(ctx context.Context, env *Env, input SolveInput) (*SolveOutput, error) {
	l, err := db.Get(ctx, env.DB, input.ID)
	if err != nil {
		return nil, err
	}
	if len(l.Solutions) > 0 && !input.Force {
		return &SolveOutput{Laundry: *l, Cached: true}, nil
	}

	remote, err := env.remote()
	if err != nil {
		return nil, err
	}
	solutions, err := remote.Solution(ctx, l.Describe())
	if err != nil {
		return nil, err
	}

	found, err := db.Put(ctx, env.DB, l.ID, laundry.Patch{Solutions: solutions})
	if err != nil {
		return nil, err
	}
	if !found {
		// Deleted while the request was in flight.
		return nil, errors.NewNotFound(l.ID)
	}
	env.Metrics.ObserveStore("put")
	env.Log.Info("solutions stored", "id", l.ID, "count", len(solutions))

	updated, err := db.Get(ctx, env.DB, l.ID)
	if err != nil {
		return nil, err
	}
	return &SolveOutput{Laundry: *updated}, nil
}
