package ops

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/hpungsan/hamper/internal/db"
)

// InventoryInput contains parameters for the Inventory operation.
type InventoryInput struct {
	Filter
}

// Tally is one distinct value and how many records carry it.
type Tally struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// InventoryOutput contains the result of the Inventory operation.
type InventoryOutput struct {
	Total       int     `json:"total"`
	Solved      int     `json:"solved"`
	WithClothes int     `json:"withClothes"`
	Types       []Tally `json:"types"`
	Materials   []Tally `json:"materials"`
	Symbols     []Tally `json:"symbols"`
}

// Inventory aggregates the basket by garment type, material and care symbol.
// Materials and symbols count once per record.
func Inventory(ctx context.Context, database *sql.DB, input InventoryInput) (*InventoryOutput, error) {
	all, err := db.GetAll(ctx, database)
	if err != nil {
		return nil, err
	}

	types := map[string]int{}
	materials := map[string]int{}
	symbols := map[string]int{}
	out := &InventoryOutput{}

	for i := range all {
		l := &all[i]
		if !input.Filter.Match(l) {
			continue
		}
		out.Total++
		if len(l.Solutions) > 0 {
			out.Solved++
		}
		if l.Image.Clothes != nil {
			out.WithClothes++
		}

		typ := strings.ToLower(l.Type)
		if typ == "" {
			typ = "unknown"
		}
		types[typ]++

		seen := map[string]bool{}
		for _, m := range l.Materials {
			m = strings.ToLower(m)
			if !seen[m] {
				seen[m] = true
				materials[m]++
			}
		}
		for _, s := range l.LaundrySymbols {
			symbols[s.Code]++
		}
	}

	out.Types = tallies(types)
	out.Materials = tallies(materials)
	out.Symbols = tallies(symbols)
	return out, nil
}

// tallies orders counts descending, ties broken alphabetically.
func tallies(counts map[string]int) []Tally {
	out := make([]Tally, 0, len(counts))
	for v, n := range counts {
		out = append(out, Tally{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
