package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID            int64
	IncludeImages *bool // default: true (nil means default)
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	laundry.Laundry // embedded (copy, not pointer)
}

// Fetch retrieves a basket record by id.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	if err := validateID(input.ID); err != nil {
		return nil, err
	}

	l, err := db.Get(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{Laundry: *l}
	if input.IncludeImages != nil && !*input.IncludeImages {
		stripImages(&output.Laundry)
	}
	return output, nil
}

// validateID rejects ids the store can never have assigned.
func validateID(id int64) error {
	if id <= 0 {
		return errors.NewInvalidRequest("id must be a positive integer")
	}
	return nil
}

// stripImages blanks image payloads while keeping their formats, so callers
// can tell which photos exist without transferring them.
func stripImages(l *laundry.Laundry) {
	l.Image.Label.Data = ""
	if l.Image.Clothes != nil {
		clothes := *l.Image.Clothes
		clothes.Data = ""
		l.Image.Clothes = &clothes
	}
}
