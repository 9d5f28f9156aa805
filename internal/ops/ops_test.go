package ops

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/hpungsan/hamper/internal/api"
	"github.com/hpungsan/hamper/internal/config"
	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/intake"
	"github.com/hpungsan/hamper/internal/laundry"
)

func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testGarment(garmentType string) laundry.Garment {
	return laundry.Garment{
		Type:      garmentType,
		Color:     "navy",
		Materials: []string{"cotton"},
		LaundrySymbols: []laundry.Symbol{
			{Code: "machineWash30", Description: "Machine wash at 30°C"},
		},
		AdditionalInfo: []string{"wash inside out"},
		Image: laundry.Images{
			Label: laundry.Image{Format: laundry.FormatJPEG, Data: "bGFiZWw="},
		},
	}
}

// seed stores one record per garment and returns their ids in order.
func seed(t *testing.T, database *sql.DB, garments ...laundry.Garment) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(garments))
	for _, g := range garments {
		out, err := Store(context.Background(), database, StoreInput{Garment: g})
		if err != nil {
			t.Fatalf("Store failed: %v", err)
		}
		ids = append(ids, out.ID)
	}
	return ids
}

func pngFile(t *testing.T, w, h int) intake.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return intake.FromBytes("label.png", "image/png", buf.Bytes())
}

// fakeRemote records calls and returns canned responses.
type fakeRemote struct {
	mu sync.Mutex

	garment     *laundry.Garment
	analyzeErr  error
	valid       bool
	validateErr error
	solutions   []laundry.Solution
	solutionErr error
	groups      []api.Group
	hamperErr   error

	validated   []api.ImageKind
	analyzed    int
	described   []laundry.Descriptor
	hamperCalls [][]laundry.Descriptor
}

func newFakeRemote() *fakeRemote {
	g := testGarment("shirt")
	g.Image = laundry.Images{}
	return &fakeRemote{
		garment: &g,
		valid:   true,
		solutions: []laundry.Solution{
			{Name: laundry.SolutionWash, Contents: "Wash cold."},
			{Name: laundry.SolutionDry, Contents: "Hang dry."},
		},
	}
}

func (f *fakeRemote) Analyze(ctx context.Context, img laundry.Image) (*laundry.Garment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed++
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	g := f.garment.Clone()
	return &g, nil
}

func (f *fakeRemote) ValidateImage(ctx context.Context, kind api.ImageKind, img laundry.Image) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validated = append(f.validated, kind)
	return f.valid, f.validateErr
}

func (f *fakeRemote) Solution(ctx context.Context, d laundry.Descriptor) ([]laundry.Solution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.described = append(f.described, d)
	if f.solutionErr != nil {
		return nil, f.solutionErr
	}
	return f.solutions, nil
}

func (f *fakeRemote) HamperSolution(ctx context.Context, ds []laundry.Descriptor) ([]api.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hamperCalls = append(f.hamperCalls, ds)
	if f.hamperErr != nil {
		return nil, f.hamperErr
	}
	if f.groups != nil {
		return f.groups, nil
	}
	ids := make([]int64, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
	}
	return []api.Group{{ID: 1, Name: "Cold wash", Solution: stringPtr("Wash together at 30°C."), LaundryIDs: ids}}, nil
}

func newTestEnv(t *testing.T, remote Remote) *Env {
	t.Helper()
	return NewEnv(newTestDB(t), config.DefaultConfig(), remote, nil, nil)
}

func TestSummarize(t *testing.T) {
	g := testGarment("shirt")
	g.Image.Clothes = &laundry.Image{Format: laundry.FormatPNG, Data: "Y2xvdGhlcw=="}
	l := &laundry.Laundry{ID: 4, Garment: g, Solutions: []laundry.Solution{{Name: laundry.SolutionWash, Contents: "x"}}}

	s := Summarize(l)
	if s.ID != 4 || s.Type != "shirt" {
		t.Errorf("Summarize = %+v", s)
	}
	if len(s.SymbolCodes) != 1 || s.SymbolCodes[0] != "machineWash30" {
		t.Errorf("SymbolCodes = %v", s.SymbolCodes)
	}
	if !s.HasClothesImage || !s.Solved {
		t.Errorf("HasClothesImage=%v Solved=%v, want both true", s.HasClothesImage, s.Solved)
	}

	empty := Summarize(&laundry.Laundry{ID: 1})
	if empty.Materials == nil || empty.SymbolCodes == nil {
		t.Error("Summarize should return empty slices, not nil")
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 20},
		{-5, 20},
		{7, 7},
		{1000, 100},
	}
	for _, tc := range tests {
		if got := clampLimit(tc.in, 20, 100); got != tc.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestEnv_RemoteMissing(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.remote(); err == nil {
		t.Error("expected error when no remote is configured")
	}
}
