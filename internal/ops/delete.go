package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID int64
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

// Delete physically removes a record. Deleting an id that is not in the
// basket succeeds with Deleted=false.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	if err := validateID(input.ID); err != nil {
		return nil, err
	}

	_, err := db.Get(ctx, database, input.ID)
	existed := err == nil
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	if err := db.Del(ctx, database, input.ID); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: existed,
		ID:      input.ID,
	}, nil
}
