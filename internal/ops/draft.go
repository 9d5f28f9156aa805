package ops

import (
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// GetDraft returns the active draft, or nil when no flow is in progress.
func GetDraft(env *Env) *laundry.Draft {
	return env.Draft.Get()
}

// EditDraft applies manual corrections to the active draft. Editing
// withdraws an earlier confirmation; the user must confirm again.
func EditDraft(env *Env, patch laundry.GarmentPatch) (*laundry.Draft, error) {
	current := env.Draft.Get()
	if current == nil {
		return nil, errors.NewInvalidRequest("no draft in progress")
	}
	if patch.IsEmpty() {
		return nil, errors.NewInvalidRequest("no fields to update")
	}
	if patch.Image != nil && patch.Image.Label != nil {
		if err := laundry.ValidateImage("image.label", *patch.Image.Label); err != nil {
			return nil, err
		}
	}
	if patch.Image != nil && patch.Image.Clothes != nil {
		if err := laundry.ValidateImage("image.clothes", *patch.Image.Clothes); err != nil {
			return nil, err
		}
	}

	unconfirmed := false
	d, ok := env.Draft.Update(current.FlowID, laundry.DraftPatch{GarmentPatch: patch, DidConfirmAnalysis: &unconfirmed})
	if !ok {
		return nil, errDraftGone()
	}
	return &d, nil
}

// ConfirmDraft marks the analysis as checked by the user. A draft without
// any analysis signal cannot be confirmed.
func ConfirmDraft(env *Env) (*laundry.Draft, error) {
	current := env.Draft.Get()
	if current == nil {
		return nil, errors.NewInvalidRequest("no draft in progress")
	}
	if !current.HasSignal() {
		return nil, errors.NewInvalidRequest("draft has no analysis result; edit it before confirming")
	}

	confirmed := true
	d, ok := env.Draft.Update(current.FlowID, laundry.DraftPatch{DidConfirmAnalysis: &confirmed})
	if !ok {
		return nil, errDraftGone()
	}
	env.Log.Debug("draft confirmed", "flow_id", d.FlowID)
	return &d, nil
}

// CancelDraft discards the active draft. Reports whether one existed.
func CancelDraft(env *Env) bool {
	d := env.Draft.Clear()
	if d == nil {
		return false
	}
	env.Metrics.ObserveDraft("cancelled")
	env.Log.Info("draft cancelled", "flow_id", d.FlowID)
	return true
}

func errDraftGone() error {
	return errors.NewInvalidRequest("draft was cancelled or replaced; start again")
}
