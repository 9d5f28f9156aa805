package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

func TestFetch(t *testing.T) {
	database := newTestDB(t)
	g := testGarment("shirt")
	g.Image.Clothes = &laundry.Image{Format: laundry.FormatPNG, Data: "Y2xvdGhlcw=="}
	ids := seed(t, database, g)

	out, err := Fetch(context.Background(), database, FetchInput{ID: ids[0]})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.ID != ids[0] || out.Type != "shirt" {
		t.Errorf("Fetch = %+v", out.Laundry)
	}
	if out.Image.Clothes == nil || out.Image.Clothes.Data == "" {
		t.Error("clothes image should be included by default")
	}
}

func TestFetch_WithoutImages(t *testing.T) {
	database := newTestDB(t)
	g := testGarment("shirt")
	g.Image.Clothes = &laundry.Image{Format: laundry.FormatPNG, Data: "Y2xvdGhlcw=="}
	ids := seed(t, database, g)

	out, err := Fetch(context.Background(), database, FetchInput{ID: ids[0], IncludeImages: boolPtr(false)})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.Image.Label.Data != "" || out.Image.Clothes.Data != "" {
		t.Error("image data should be stripped")
	}
	if out.Image.Label.Format != laundry.FormatJPEG || out.Image.Clothes.Format != laundry.FormatPNG {
		t.Error("image formats should be kept")
	}
}

func TestFetch_Errors(t *testing.T) {
	database := newTestDB(t)

	if _, err := Fetch(context.Background(), database, FetchInput{ID: 0}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("id 0: err = %v, want INVALID_REQUEST", err)
	}
	if _, err := Fetch(context.Background(), database, FetchInput{ID: 7}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing: err = %v, want NOT_FOUND", err)
	}
}
