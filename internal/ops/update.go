package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID    int64
	Patch laundry.Patch
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID      int64           `json:"id"`
	Laundry laundry.Laundry `json:"laundry"`
}

// Update merges a partial change into an existing record.
// Unlike the store-level Put, a missing record is reported as NOT_FOUND.
func Update(ctx context.Context, database *sql.DB, input UpdateInput) (*UpdateOutput, error) {
	if err := validateID(input.ID); err != nil {
		return nil, err
	}
	if input.Patch.IsEmpty() {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	p := input.Patch
	if p.Image != nil && p.Image.Label != nil {
		if err := laundry.ValidateImage("image.label", *p.Image.Label); err != nil {
			return nil, err
		}
	}
	if p.Image != nil && p.Image.Clothes != nil {
		if err := laundry.ValidateImage("image.clothes", *p.Image.Clothes); err != nil {
			return nil, err
		}
	}
	if p.Solutions != nil {
		if err := laundry.ValidateSolutions(p.Solutions); err != nil {
			return nil, err
		}
	}

	found, err := db.Put(ctx, database, input.ID, p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFound(input.ID)
	}

	l, err := db.Get(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}
	return &UpdateOutput{ID: input.ID, Laundry: *l}, nil
}
