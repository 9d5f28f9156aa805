package ops

import (
	"context"
	"testing"
)

func TestList_NewestFirstWithPagination(t *testing.T) {
	database := newTestDB(t)
	seed(t, database, testGarment("a"), testGarment("b"), testGarment("c"))

	out, err := List(context.Background(), database, ListInput{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 2 || out.Items[0].Type != "c" || out.Items[1].Type != "b" {
		t.Fatalf("items = %+v, want c, b", out.Items)
	}
	if !out.Pagination.HasMore || out.Pagination.Total != 3 {
		t.Errorf("pagination = %+v", out.Pagination)
	}
	if out.Sort != "id_desc" {
		t.Errorf("Sort = %q", out.Sort)
	}

	out, err = List(context.Background(), database, ListInput{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 1 || out.Pagination.HasMore {
		t.Errorf("second page = %+v", out)
	}
}

func TestList_Empty(t *testing.T) {
	database := newTestDB(t)

	out, err := List(context.Background(), database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Items == nil || len(out.Items) != 0 {
		t.Errorf("Items = %v, want empty array", out.Items)
	}
	if out.Pagination.Limit != DefaultListLimit {
		t.Errorf("Limit = %d, want %d", out.Pagination.Limit, DefaultListLimit)
	}
}

func TestList_Filter(t *testing.T) {
	database := newTestDB(t)
	jeans := testGarment("Jeans")
	jeans.Materials = []string{"denim"}
	seed(t, database, testGarment("shirt"), jeans, testGarment("shirt"))

	out, err := List(context.Background(), database, ListInput{Filter: Filter{Type: "SHIRT"}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 2 {
		t.Errorf("Total = %d, want 2", out.Pagination.Total)
	}
	if len(out.Items) != 2 || out.Items[0].ID != 3 {
		t.Errorf("items = %+v, want ids 3, 1", out.Items)
	}

	out, err = List(context.Background(), database, ListInput{Filter: Filter{Material: "denim"}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Type != "Jeans" {
		t.Errorf("items = %+v, want the jeans", out.Items)
	}

	out, err = List(context.Background(), database, ListInput{Filter: Filter{Symbol: "doNotBleach"}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 0 {
		t.Errorf("items = %+v, want none", out.Items)
	}
}
