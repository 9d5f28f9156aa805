package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/hamper/internal/laundry"
)

func TestInventory(t *testing.T) {
	database := newTestDB(t)

	sweater := testGarment("Sweater")
	sweater.Materials = []string{"wool", "Wool", "nylon"}
	sweater.Image.Clothes = &laundry.Image{Format: laundry.FormatPNG, Data: "eA=="}
	seed(t, database, testGarment("shirt"), testGarment("shirt"), sweater, laundry.Garment{
		Color: "red",
		Image: laundry.Images{Label: laundry.Image{Format: laundry.FormatPNG, Data: "eA=="}},
	})

	out, err := Inventory(context.Background(), database, InventoryInput{})
	if err != nil {
		t.Fatalf("Inventory failed: %v", err)
	}

	if out.Total != 4 || out.WithClothes != 1 || out.Solved != 0 {
		t.Errorf("totals = %+v", out)
	}
	wantTypes := []Tally{{"shirt", 2}, {"sweater", 1}, {"unknown", 1}}
	if len(out.Types) != len(wantTypes) {
		t.Fatalf("Types = %+v, want %+v", out.Types, wantTypes)
	}
	for i, w := range wantTypes {
		if out.Types[i] != w {
			t.Errorf("Types[%d] = %+v, want %+v", i, out.Types[i], w)
		}
	}
	if out.Materials[0] != (Tally{"cotton", 2}) {
		t.Errorf("Materials[0] = %+v, want cotton x2", out.Materials[0])
	}
	for _, m := range out.Materials {
		if m.Value == "wool" && m.Count != 1 {
			t.Errorf("wool counted %d times, want once per record", m.Count)
		}
	}
	if len(out.Symbols) != 1 || out.Symbols[0] != (Tally{"machineWash30", 3}) {
		t.Errorf("Symbols = %+v", out.Symbols)
	}
}

func TestInventory_Filtered(t *testing.T) {
	database := newTestDB(t)
	seed(t, database, testGarment("shirt"), testGarment("jeans"))

	out, err := Inventory(context.Background(), database, InventoryInput{Filter: Filter{Type: "jeans"}})
	if err != nil {
		t.Fatalf("Inventory failed: %v", err)
	}
	if out.Total != 1 || len(out.Types) != 1 || out.Types[0].Value != "jeans" {
		t.Errorf("Inventory = %+v", out)
	}
}
