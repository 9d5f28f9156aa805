package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
)

// BulkDeleteInput contains parameters for the BulkDelete operation.
// Either IDs or a non-empty Filter selects the records, never both.
type BulkDeleteInput struct {
	IDs []int64
	Filter
}

// BulkDeleteOutput contains the result of the BulkDelete operation.
type BulkDeleteOutput struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// BulkDelete physically removes every selected record.
// At least one selector must be provided (safety guard); use Clear to
// empty the whole basket.
func BulkDelete(ctx context.Context, database *sql.DB, input BulkDeleteInput) (*BulkDeleteOutput, error) {
	hasIDs := len(input.IDs) > 0
	hasFilter := !input.Filter.IsEmpty()

	switch {
	case !hasIDs && !hasFilter:
		return nil, errors.NewInvalidRequest("ids or at least one filter is required")
	case hasIDs && hasFilter:
		return nil, errors.NewInvalidRequest("specify either ids or filters, not both")
	case len(input.IDs) > MaxBulkDeleteItems:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("at most %d ids can be deleted at once", MaxBulkDeleteItems))
	}

	ids := input.IDs
	if hasFilter {
		all, err := db.GetAll(ctx, database)
		if err != nil {
			return nil, err
		}
		ids = nil
		for i := range all {
			if input.Filter.Match(&all[i]) {
				ids = append(ids, all[i].ID)
			}
		}
	} else {
		for _, id := range ids {
			if err := validateID(id); err != nil {
				return nil, err
			}
		}
	}

	count, err := db.DelMany(ctx, database, ids)
	if err != nil {
		return nil, err
	}

	return &BulkDeleteOutput{
		Deleted: int(count),
		Message: formatBulkDeleteMessage(int(count), input),
	}, nil
}

// formatBulkDeleteMessage creates a human-readable message for the result.
func formatBulkDeleteMessage(count int, input BulkDeleteInput) string {
	noun := "laundries"
	if count == 1 {
		noun = "laundry"
	}

	if len(input.IDs) > 0 {
		return fmt.Sprintf("Deleted %d %s of %d requested", count, noun, len(dedupeIDs(input.IDs)))
	}

	var parts []string
	if t := strings.TrimSpace(input.Type); t != "" {
		parts = append(parts, fmt.Sprintf("type=%q", t))
	}
	if m := strings.TrimSpace(input.Material); m != "" {
		parts = append(parts, fmt.Sprintf("material=%q", m))
	}
	if s := strings.TrimSpace(input.Symbol); s != "" {
		parts = append(parts, fmt.Sprintf("symbol=%q", s))
	}
	return fmt.Sprintf("Deleted %d %s matching %s", count, noun, strings.Join(parts, ", "))
}
