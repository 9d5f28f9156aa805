package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// FetchManyInput contains parameters for the FetchMany operation.
type FetchManyInput struct {
	IDs           []int64
	IncludeImages *bool // default: true
}

// FetchManyOutput contains the result of the FetchMany operation.
type FetchManyOutput struct {
	Items  []laundry.Laundry `json:"items"`
	Errors []FetchManyError  `json:"errors"`
}

// FetchManyError reports one id that could not be fetched.
type FetchManyError struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FetchMany retrieves several records in the requested order.
// Returns partial success with items and errors arrays.
func FetchMany(ctx context.Context, database *sql.DB, input FetchManyInput) (*FetchManyOutput, error) {
	if len(input.IDs) == 0 {
		return nil, errors.NewInvalidRequest("ids must not be empty")
	}
	if len(input.IDs) > MaxFetchManyItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("at most %d ids can be fetched at once", MaxFetchManyItems))
	}

	includeImages := true
	if input.IncludeImages != nil {
		includeImages = *input.IncludeImages
	}

	var valid []int64
	errs := []FetchManyError{}
	for _, id := range input.IDs {
		if err := validateID(id); err != nil {
			errs = append(errs, idToError(id, err))
			continue
		}
		valid = append(valid, id)
	}

	items, err := db.GetMany(ctx, database, valid)
	if err != nil {
		return nil, err
	}

	found := make(map[int64]bool, len(items))
	for i := range items {
		found[items[i].ID] = true
		if !includeImages {
			stripImages(&items[i])
		}
	}
	reported := make(map[int64]bool)
	for _, id := range valid {
		if !found[id] && !reported[id] {
			reported[id] = true
			errs = append(errs, idToError(id, errors.NewNotFound(id)))
		}
	}

	return &FetchManyOutput{
		Items:  items,
		Errors: errs,
	}, nil
}

// idToError converts a fetch error to a FetchManyError.
func idToError(id int64, err error) FetchManyError {
	code, message := errorParts(err)
	return FetchManyError{
		ID:      id,
		Code:    code,
		Message: message,
	}
}
