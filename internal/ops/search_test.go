package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

func TestSearch_RanksTypeAboveNotes(t *testing.T) {
	database := newTestDB(t)

	notes := testGarment("jacket")
	notes.AdditionalInfo = []string{"wash with other wool items"}
	wool := testGarment("wool sweater")
	seed(t, database, notes, wool, testGarment("shirt"))

	out, err := Search(context.Background(), database, SearchInput{Query: "WOOL"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if out.Pagination.Total != 2 {
		t.Fatalf("Total = %d, want 2", out.Pagination.Total)
	}
	if out.Items[0].Type != "wool sweater" {
		t.Errorf("first hit = %q, want wool sweater", out.Items[0].Type)
	}
	if out.Items[0].Snippet != "<b>wool</b> sweater" {
		t.Errorf("Snippet = %q", out.Items[0].Snippet)
	}
	if out.Sort != "relevance" {
		t.Errorf("Sort = %q", out.Sort)
	}
}

func TestSearch_AllTermsRequired(t *testing.T) {
	database := newTestDB(t)
	seed(t, database, testGarment("shirt"), testGarment("jeans"))

	out, err := Search(context.Background(), database, SearchInput{Query: "navy jeans"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Type != "jeans" {
		t.Errorf("items = %+v, want only jeans", out.Items)
	}
}

func TestSearch_MatchesSymbols(t *testing.T) {
	database := newTestDB(t)
	g := testGarment("shirt")
	g.LaundrySymbols = []laundry.Symbol{{Code: "doNotBleach", Description: "Do not bleach"}}
	seed(t, database, g)

	out, err := Search(context.Background(), database, SearchInput{Query: "bleach"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(out.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(out.Items))
	}
	if !strings.Contains(out.Items[0].Snippet, "<b>Bleach</b>") {
		t.Errorf("Snippet = %q", out.Items[0].Snippet)
	}
}

func TestSearch_EscapesHTML(t *testing.T) {
	database := newTestDB(t)
	seed(t, database, testGarment("<script>shirt</script>"))

	out, err := Search(context.Background(), database, SearchInput{Query: "shirt"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(out.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(out.Items))
	}
	if strings.Contains(out.Items[0].Snippet, "<script>") {
		t.Errorf("Snippet not escaped: %q", out.Items[0].Snippet)
	}
}

func TestSearch_InvalidQuery(t *testing.T) {
	database := newTestDB(t)

	for _, q := range []string{"", "   ", strings.Repeat("x", MaxQueryLength+1)} {
		if _, err := Search(context.Background(), database, SearchInput{Query: q}); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("Search(%d chars): err = %v, want INVALID_REQUEST", len(q), err)
		}
	}
}

func TestMarkTerms(t *testing.T) {
	tests := []struct {
		text  string
		terms []string
		want  string
	}{
		{"Wool Sweater", []string{"wool"}, "[[[B]]]Wool[[[/B]]] Sweater"},
		{"aaa", []string{"a"}, "[[[B]]]aaa[[[/B]]]"},
		{"cotton", []string{"x"}, "cotton"},
	}
	for _, tc := range tests {
		if got := markTerms(tc.text, tc.terms); got != tc.want {
			t.Errorf("markTerms(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestTruncateSnippet(t *testing.T) {
	s := "<b>wool</b> " + strings.Repeat("word ", 100)
	got := truncateSnippet(s, 50)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated snippet should end with ellipsis: %q", got)
	}
	if strings.Count(got, "<b>") != strings.Count(got, "</b>") {
		t.Errorf("unbalanced tags: %q", got)
	}
	if short := truncateSnippet("short", 50); short != "short" {
		t.Errorf("short snippet changed: %q", short)
	}
}
