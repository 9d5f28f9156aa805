package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// StoreInput contains parameters for the Store operation.
type StoreInput struct {
	Garment   laundry.Garment
	Solutions []laundry.Solution
}

// StoreOutput contains the result of the Store operation.
type StoreOutput struct {
	ID int64 `json:"id"`
}

// Store validates and adds a new record to the basket.
func Store(ctx context.Context, database *sql.DB, input StoreInput) (*StoreOutput, error) {
	l := &laundry.Laundry{
		Garment:   input.Garment.Clone(),
		Solutions: input.Solutions,
	}
	if l.Solutions == nil {
		l.Solutions = []laundry.Solution{}
	}
	l.Normalize()

	if !l.HasSignal() {
		return nil, errors.NewInvalidRequest("laundry has no analysis result (type, color, materials, symbols or notes)")
	}
	if err := laundry.Validate(l); err != nil {
		return nil, err
	}

	id, err := db.Add(ctx, database, l)
	if err != nil {
		return nil, err
	}
	return &StoreOutput{ID: id}, nil
}

// CommitOutput contains the result of the CommitDraft operation.
type CommitOutput struct {
	ID     int64  `json:"id"`
	FlowID string `json:"flowId"`
}

// CommitDraft promotes the confirmed draft to a stored record and ends the
// flow. The draft is kept when the write fails so the user can retry.
func CommitDraft(ctx context.Context, env *Env) (*CommitOutput, error) {
	d := env.Draft.Get()
	if d == nil {
		return nil, errors.NewInvalidRequest("no draft in progress")
	}
	if !d.DidConfirmAnalysis {
		return nil, errors.NewInvalidRequest("analysis has not been confirmed")
	}

	l := d.Promote()
	out, err := Store(ctx, env.DB, StoreInput{Garment: l.Garment, Solutions: l.Solutions})
	if err != nil {
		return nil, err
	}

	if !env.Draft.Finish(d.FlowID) {
		env.Log.Warn("draft changed during commit; newer flow kept", "flow_id", d.FlowID, "id", out.ID)
	}
	env.Metrics.ObserveStore("add")
	env.Metrics.ObserveDraft("committed")
	env.Log.Info("draft committed", "flow_id", d.FlowID, "id", out.ID)

	return &CommitOutput{ID: out.ID, FlowID: d.FlowID}, nil
}
