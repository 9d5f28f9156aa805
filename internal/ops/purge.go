package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
)

// ClearInput contains parameters for the Clear operation.
type ClearInput struct {
	Confirm bool // required; guards against emptying the basket by accident
}

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Cleared int    `json:"cleared"`
	Message string `json:"message"`
}

// Clear permanently deletes every record in the basket.
// Ids are not reused afterwards.
func Clear(ctx context.Context, database *sql.DB, input ClearInput) (*ClearOutput, error) {
	if !input.Confirm {
		return nil, errors.NewInvalidRequest("confirm must be true to clear the basket")
	}

	count, err := db.Clear(ctx, database)
	if err != nil {
		return nil, err
	}

	return &ClearOutput{
		Cleared: int(count),
		Message: formatClearMessage(int(count)),
	}, nil
}

// formatClearMessage creates a human-readable message for the clear result.
func formatClearMessage(count int) string {
	switch count {
	case 0:
		return "Basket was already empty"
	case 1:
		return "Removed 1 laundry from the basket"
	default:
		return fmt.Sprintf("Removed %d laundries from the basket", count)
	}
}
