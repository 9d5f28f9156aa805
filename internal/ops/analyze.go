package ops

import (
	"context"

	"github.com/hpungsan/hamper/internal/api"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/intake"
	"github.com/hpungsan/hamper/internal/laundry"
)

// AnalyzeInput contains parameters for the AnalyzeLabel operation.
type AnalyzeInput struct {
	File intake.File
}

// AnalyzeOutput contains the draft produced by an analysis.
type AnalyzeOutput struct {
	Draft     laundry.Draft `json:"draft"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Unknown   []string      `json:"unknownSymbols,omitempty"`
	Discarded bool          `json:"discardedPrevious"`
}

// AnalyzeLabel runs a care-label photo through intake, optional remote
// validation and remote analysis, then starts a new draft from the result.
// A draft left over from an earlier flow is discarded. On failure no draft
// is started and the earlier one is kept.
func AnalyzeLabel(ctx context.Context, env *Env, input AnalyzeInput) (*AnalyzeOutput, error) {
	remote, err := env.remote()
	if err != nil {
		return nil, err
	}

	res, err := env.Intake.Intake(ctx, input.File, intake.ConstraintsFor(env.Config, intake.KindLabel))
	if err != nil {
		return nil, err
	}
	img := res.Image()

	if !env.Config.SkipImageValidation {
		ok, err := remote.ValidateImage(ctx, api.ImageKindLabel, img)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewBadInput("image does not show a care label")
		}
	}

	garment, err := remote.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}

	d, discarded := env.Draft.Replace(laundry.DraftPatch{
		GarmentPatch: analysisPatch(garment, img),
	})
	if discarded != nil {
		env.Metrics.ObserveDraft("discarded")
		env.Log.Info("draft discarded", "flow_id", discarded.FlowID)
	}
	env.Log.Info("label analyzed", "flow_id", d.FlowID, "type", d.Type, "symbols", len(d.LaundrySymbols))

	codes := make([]string, 0, len(d.LaundrySymbols))
	for _, s := range d.LaundrySymbols {
		codes = append(codes, s.Code)
	}

	return &AnalyzeOutput{
		Draft:     d,
		Width:     res.Width,
		Height:    res.Height,
		Unknown:   env.Catalog.Unknown(codes),
		Discarded: discarded != nil,
	}, nil
}

// analysisPatch turns an analysis result into a full overwrite of the draft
// fields, so empty results clear rather than keep stale values.
func analysisPatch(g *laundry.Garment, label laundry.Image) laundry.GarmentPatch {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	symbols := g.LaundrySymbols
	if symbols == nil {
		symbols = []laundry.Symbol{}
	}
	return laundry.GarmentPatch{
		Type:            &g.Type,
		Color:           &g.Color,
		Materials:       nonNil(g.Materials),
		HasPrintOrTrims: &g.HasPrintOrTrims,
		LaundrySymbols:  symbols,
		AdditionalInfo:  nonNil(g.AdditionalInfo),
		Image:           &laundry.ImagePatch{Label: &label},
	}
}

// AttachClothesInput contains parameters for the AttachClothes operation.
type AttachClothesInput struct {
	File intake.File
}

// AttachClothes adds a photo of the garment itself to the active draft.
func AttachClothes(ctx context.Context, env *Env, input AttachClothesInput) (*laundry.Draft, error) {
	current := env.Draft.Get()
	if current == nil {
		return nil, errors.NewInvalidRequest("no draft in progress; analyze a label first")
	}

	res, err := env.Intake.Intake(ctx, input.File, intake.ConstraintsFor(env.Config, intake.KindClothes))
	if err != nil {
		return nil, err
	}
	img := res.Image()

	if !env.Config.SkipImageValidation {
		remote, err := env.remote()
		if err != nil {
			return nil, err
		}
		ok, err := remote.ValidateImage(ctx, api.ImageKindClothes, img)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewBadInput("image does not show a garment")
		}
	}

	d, ok := env.Draft.Update(current.FlowID, laundry.DraftPatch{
		GarmentPatch: laundry.GarmentPatch{Image: &laundry.ImagePatch{Clothes: &img}},
	})
	if !ok {
		return nil, errDraftGone()
	}
	env.Log.Debug("clothes attached", "flow_id", d.FlowID)
	return &d, nil
}
