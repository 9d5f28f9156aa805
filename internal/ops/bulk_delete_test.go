package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
)

func TestBulkDelete_ByIDs(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	ids := seed(t, database, testGarment("a"), testGarment("b"), testGarment("c"))

	out, err := BulkDelete(ctx, database, BulkDeleteInput{IDs: []int64{ids[0], ids[2], 99}})
	if err != nil {
		t.Fatalf("BulkDelete failed: %v", err)
	}
	if out.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", out.Deleted)
	}
	if !strings.Contains(out.Message, "of 3 requested") {
		t.Errorf("Message = %q", out.Message)
	}

	n, err := db.Count(ctx, database)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestBulkDelete_ByFilter(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	seed(t, database, testGarment("sock"), testGarment("shirt"), testGarment("Sock"))

	out, err := BulkDelete(ctx, database, BulkDeleteInput{Filter: Filter{Type: "sock"}})
	if err != nil {
		t.Fatalf("BulkDelete failed: %v", err)
	}
	if out.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", out.Deleted)
	}
	if !strings.Contains(out.Message, `type="sock"`) {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestBulkDelete_Guards(t *testing.T) {
	database := newTestDB(t)

	tests := []struct {
		name  string
		input BulkDeleteInput
	}{
		{"nothing", BulkDeleteInput{}},
		{"blank filter", BulkDeleteInput{Filter: Filter{Type: "   "}}},
		{"both", BulkDeleteInput{IDs: []int64{1}, Filter: Filter{Type: "sock"}}},
		{"bad id", BulkDeleteInput{IDs: []int64{0}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BulkDelete(context.Background(), database, tc.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("err = %v, want INVALID_REQUEST", err)
			}
		})
	}
}
