package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

type solutionResponse struct {
	Solutions []laundry.Solution `json:"solutions"`
}

// Solution requests care advice for one garment.
func (c *Client) Solution(ctx context.Context, d laundry.Descriptor) ([]laundry.Solution, error) {
	var out solutionResponse
	if err := c.call(ctx, "solution", http.MethodPost, "/laundry/solution", d, &out); err != nil {
		return nil, err
	}
	if out.Solutions == nil {
		return nil, errors.NewBadInput("solution response missing solutions")
	}
	if err := laundry.ValidateSolutions(out.Solutions); err != nil {
		return nil, errors.NewBadInput(fmt.Sprintf("solution response: %s", errors.As(err).Message))
	}
	return out.Solutions, nil
}

// Group is one set of garments that can be washed together.
type Group struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Solution   *string `json:"solution"`
	LaundryIDs []int64 `json:"laundryIds"`
}

type hamperRequest struct {
	Laundries []laundry.Descriptor `json:"laundries"`
}

type hamperResponse struct {
	Groups []Group `json:"groups"`
}

// HamperSolution asks how the given garments can be grouped for washing.
// Every returned laundry id must be one that was sent.
func (c *Client) HamperSolution(ctx context.Context, ds []laundry.Descriptor) ([]Group, error) {
	if len(ds) == 0 {
		return nil, errors.NewInvalidRequest("at least one laundry is required")
	}

	var out hamperResponse
	if err := c.call(ctx, "hamper_solution", http.MethodPost, "/hamper/solution", hamperRequest{Laundries: ds}, &out); err != nil {
		return nil, err
	}
	if out.Groups == nil {
		return nil, errors.NewBadInput("hamper response missing groups")
	}

	sent := make(map[int64]bool, len(ds))
	for _, d := range ds {
		sent[d.ID] = true
	}
	for _, g := range out.Groups {
		for _, id := range g.LaundryIDs {
			if !sent[id] {
				return nil, errors.NewBadInput(fmt.Sprintf("hamper response references unknown laundry %d", id))
			}
		}
	}
	return out.Groups, nil
}
