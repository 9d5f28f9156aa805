package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/laundry"
)

// Filter narrows basket operations. Empty fields match everything; the
// non-empty ones must all match (case-insensitive).
type Filter struct {
	Type     string `json:"type,omitempty"`
	Material string `json:"material,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
}

// IsEmpty reports whether f matches every record.
func (f Filter) IsEmpty() bool {
	return strings.TrimSpace(f.Type) == "" &&
		strings.TrimSpace(f.Material) == "" &&
		strings.TrimSpace(f.Symbol) == ""
}

// Match reports whether l satisfies every non-empty field of f.
func (f Filter) Match(l *laundry.Laundry) bool {
	if t := strings.TrimSpace(f.Type); t != "" && !strings.EqualFold(l.Type, t) {
		return false
	}
	if m := strings.TrimSpace(f.Material); m != "" && !containsFold(l.Materials, m) {
		return false
	}
	if s := strings.TrimSpace(f.Symbol); s != "" {
		codes := make([]string, len(l.LaundrySymbols))
		for i, sym := range l.LaundrySymbols {
			codes[i] = sym.Code
		}
		if !containsFold(codes, s) {
			return false
		}
	}
	return true
}

func containsFold(items []string, want string) bool {
	for _, s := range items {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

// ListInput contains parameters for the List operation.
type ListInput struct {
	Filter
	Limit  int // default: 20, max: 100
	Offset int // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []Summary  `json:"items"`
	Pagination Pagination `json:"pagination"`
	Sort       string     `json:"sort"`
}

// List retrieves basket summaries, newest first, with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)
	offset := max(input.Offset, 0)

	var (
		page  []laundry.Laundry
		total int
		err   error
	)
	if input.Filter.IsEmpty() {
		page, total, err = db.Page(ctx, database, limit, offset)
		if err != nil {
			return nil, err
		}
	} else {
		all, err := db.GetAll(ctx, database)
		if err != nil {
			return nil, err
		}
		var matched []laundry.Laundry
		for i := len(all) - 1; i >= 0; i-- {
			if input.Filter.Match(&all[i]) {
				matched = append(matched, all[i])
			}
		}
		total = len(matched)
		page = paginate(matched, limit, offset)
	}

	items := make([]Summary, len(page))
	for i := range page {
		items[i] = Summarize(&page[i])
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "id_desc",
	}, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
