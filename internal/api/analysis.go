package api

import (
	"context"
	"net/http"

	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

type imageRequest struct {
	Image laundry.Image `json:"image"`
}

// Analyze sends a care-label photo for analysis. The result carries no
// image; a result without any analysis signal is BAD_INPUT.
func (c *Client) Analyze(ctx context.Context, img laundry.Image) (*laundry.Garment, error) {
	var out laundry.Garment
	if err := c.call(ctx, "analysis", http.MethodPost, "/laundry/analysis", imageRequest{Image: img}, &out); err != nil {
		return nil, err
	}

	out.Image = laundry.Images{}
	out.Normalize()
	if !out.HasSignal() {
		return nil, errors.NewBadInput("no care information found on the label")
	}
	return &out, nil
}

// ImageKind is the subject the validation endpoint checks for.
type ImageKind string

const (
	ImageKindLabel   ImageKind = "label"
	ImageKindClothes ImageKind = "clothes"
)

type validationRequest struct {
	Type  ImageKind     `json:"type"`
	Image laundry.Image `json:"image"`
}

type validationResponse struct {
	Image *struct {
		IsValid *bool `json:"isValid"`
	} `json:"image"`
}

// ValidateImage asks whether img actually shows the given kind of subject.
func (c *Client) ValidateImage(ctx context.Context, kind ImageKind, img laundry.Image) (bool, error) {
	var out validationResponse
	if err := c.call(ctx, "image_validation", http.MethodPost, "/image/validation", validationRequest{Type: kind, Image: img}, &out); err != nil {
		return false, err
	}
	if out.Image == nil || out.Image.IsValid == nil {
		return false, errors.NewBadInput("validation response missing image.isValid")
	}
	return *out.Image.IsValid, nil
}
