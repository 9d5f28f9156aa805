package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/laundry"
)

// LatestInput contains parameters for the Latest operation.
type LatestInput struct {
	Full bool // default: false (summary only)
}

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Item    *Summary         `json:"item"` // nil if the basket is empty
	Laundry *laundry.Laundry `json:"laundry,omitempty"`
}

// Latest retrieves the most recently added record.
func Latest(ctx context.Context, database *sql.DB, input LatestInput) (*LatestOutput, error) {
	page, _, err := db.Page(ctx, database, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return &LatestOutput{Item: nil}, nil
	}

	l := page[0]
	s := Summarize(&l)
	out := &LatestOutput{Item: &s}
	if input.Full {
		out.Laundry = &l
	}
	return out, nil
}
