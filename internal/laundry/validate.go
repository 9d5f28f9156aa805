package laundry

import (
	"fmt"
	"strings"

	"github.com/hpungsan/hamper/internal/errors"
)

// ValidateImage checks that img has a known format and a payload.
func ValidateImage(field string, img Image) error {
	if img.Format != FormatJPEG && img.Format != FormatPNG {
		return errors.NewInvalidRequest(fmt.Sprintf("%s.format must be one of: jpeg, png", field))
	}
	if strings.TrimSpace(img.Data) == "" {
		return errors.NewInvalidRequest(fmt.Sprintf("%s.data is required", field))
	}
	return nil
}

// ValidateSolutions checks names are known and appear at most once.
func ValidateSolutions(solutions []Solution) error {
	seen := make(map[SolutionName]bool, len(solutions))
	for _, s := range solutions {
		if !s.Name.Valid() {
			return errors.NewInvalidRequest(fmt.Sprintf("solution name must be one of: wash, dry, etc (got %q)", s.Name))
		}
		if seen[s.Name] {
			return errors.NewInvalidRequest(fmt.Sprintf("duplicate solution %q", s.Name))
		}
		seen[s.Name] = true
	}
	return nil
}

// Validate checks a record before it is written to the store.
// Symbol codes are not checked against the catalog here; unknown codes are
// tolerated because the analysis service may know symbols we do not.
func Validate(l *Laundry) error {
	if err := ValidateImage("image.label", l.Image.Label); err != nil {
		return err
	}
	if l.Image.Clothes != nil {
		if err := ValidateImage("image.clothes", *l.Image.Clothes); err != nil {
			return err
		}
	}
	return ValidateSolutions(l.Solutions)
}
