package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// HamperInput contains parameters for the HamperSolve operation.
type HamperInput struct {
	IDs    []int64 // required, 1-50 ids; empty with All=true means the whole basket
	All    bool
	Format string // "json" (default) or "markdown"
}

// HamperGroup is one wash group with the summaries of its members.
type HamperGroup struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Solution   *string   `json:"solution"`
	LaundryIDs []int64   `json:"laundryIds"`
	Items      []Summary `json:"items"`
}

// HamperOutput contains the result of the HamperSolve operation.
type HamperOutput struct {
	Groups   []HamperGroup `json:"groups"`
	Missing  []int64       `json:"missing"`
	Markdown string        `json:"markdown,omitempty"`
}

// HamperSolve asks the remote service how the selected basket records can be
// washed together. Ids that are not in the basket are reported in Missing.
func HamperSolve(ctx context.Context, env *Env, input HamperInput) (*HamperOutput, error) {
	format := input.Format
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "markdown" {
		return nil, errors.NewInvalidRequest("format must be one of: json, markdown")
	}

	var (
		records []laundry.Laundry
		err     error
	)
	switch {
	case input.All && len(input.IDs) > 0:
		return nil, errors.NewInvalidRequest("specify either ids or all, not both")
	case input.All:
		records, err = db.GetAll(ctx, env.DB)
	case len(input.IDs) == 0:
		return nil, errors.NewInvalidRequest("ids must not be empty")
	default:
		records, err = db.GetMany(ctx, env.DB, dedupeIDs(input.IDs))
	}
	if err != nil {
		return nil, err
	}
	if len(records) > MaxHamperItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("at most %d laundries can be grouped at once", MaxHamperItems))
	}

	missing := missingIDs(input.IDs, records)
	if len(records) == 0 {
		return nil, errors.NewInvalidRequest("none of the requested laundries are in the basket")
	}

	remote, err := env.remote()
	if err != nil {
		return nil, err
	}

	descriptors := make([]laundry.Descriptor, len(records))
	byID := make(map[int64]*laundry.Laundry, len(records))
	for i := range records {
		descriptors[i] = records[i].Describe()
		byID[records[i].ID] = &records[i]
	}

	groups, err := remote.HamperSolution(ctx, descriptors)
	if err != nil {
		return nil, err
	}

	out := &HamperOutput{Groups: make([]HamperGroup, 0, len(groups)), Missing: missing}
	for _, g := range groups {
		hg := HamperGroup{
			ID:         g.ID,
			Name:       g.Name,
			Solution:   g.Solution,
			LaundryIDs: g.LaundryIDs,
			Items:      make([]Summary, 0, len(g.LaundryIDs)),
		}
		for _, id := range g.LaundryIDs {
			if l, ok := byID[id]; ok {
				hg.Items = append(hg.Items, Summarize(l))
			}
		}
		out.Groups = append(out.Groups, hg)
	}

	if format == "markdown" {
		out.Markdown = renderHamperMarkdown(out.Groups)
	}
	env.Log.Info("hamper solved", "laundries", len(records), "groups", len(groups), "missing", len(missing))
	return out, nil
}

// renderHamperMarkdown formats groups as a checklist, one section per group.
func renderHamperMarkdown(groups []HamperGroup) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", g.Name)
		if g.Solution != nil && *g.Solution != "" {
			b.WriteString(*g.Solution)
			b.WriteString("\n\n")
		}
		for _, item := range g.Items {
			label := strings.TrimSpace(item.Color + " " + item.Type)
			if label == "" {
				label = "unnamed"
			}
			fmt.Fprintf(&b, "- [ ] #%d %s\n", item.ID, label)
		}
	}
	return b.String()
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func missingIDs(requested []int64, found []laundry.Laundry) []int64 {
	have := make(map[int64]bool, len(found))
	for _, l := range found {
		have[l.ID] = true
	}
	missing := []int64{}
	for _, id := range dedupeIDs(requested) {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
