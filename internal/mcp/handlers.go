package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/hamper/internal/catalog"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
	"github.com/hpungsan/hamper/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// FilterArgs are the shared type/material/symbol filter arguments.
type FilterArgs struct {
	Type     string `json:"type,omitempty"`
	Material string `json:"material,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
}

func (f FilterArgs) filter() ops.Filter {
	return ops.Filter{Type: f.Type, Material: f.Material, Symbol: f.Symbol}
}

// StoreRequest represents the arguments for laundry_store.
type StoreRequest struct {
	Garment   laundry.Garment    `json:"garment"`
	Solutions []laundry.Solution `json:"solutions,omitempty"`
}

// FetchRequest represents the arguments for laundry_fetch.
type FetchRequest struct {
	ID            int64 `json:"id"`
	IncludeImages *bool `json:"include_images,omitempty"`
}

// FetchManyRequest represents the arguments for laundry_fetch_many.
type FetchManyRequest struct {
	IDs           []int64 `json:"ids"`
	IncludeImages *bool   `json:"include_images,omitempty"`
}

// UpdateRequest represents the arguments for laundry_update.
type UpdateRequest struct {
	ID    int64         `json:"id"`
	Patch laundry.Patch `json:"patch"`
}

// DeleteRequest represents the arguments for laundry_delete.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// LatestRequest represents the arguments for laundry_latest.
type LatestRequest struct {
	Full bool `json:"full,omitempty"`
}

// ListRequest represents the arguments for laundry_list.
type ListRequest struct {
	FilterArgs
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// InventoryRequest represents the arguments for laundry_inventory.
type InventoryRequest struct {
	FilterArgs
}

// SearchRequest represents the arguments for laundry_search.
type SearchRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ExportRequest represents the arguments for laundry_export.
type ExportRequest struct {
	FilterArgs
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for laundry_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// ClearRequest represents the arguments for laundry_clear.
type ClearRequest struct {
	Confirm bool `json:"confirm"`
}

// BulkDeleteRequest represents the arguments for laundry_bulk_delete.
type BulkDeleteRequest struct {
	FilterArgs
	IDs []int64 `json:"ids,omitempty"`
}

// SolveRequest represents the arguments for laundry_solve.
type SolveRequest struct {
	ID    int64 `json:"id"`
	Force bool  `json:"force,omitempty"`
}

// HamperRequest represents the arguments for laundry_hamper.
type HamperRequest struct {
	IDs    []int64 `json:"ids,omitempty"`
	All    bool    `json:"all,omitempty"`
	Format string  `json:"format,omitempty"`
}

// SymbolLookupRequest represents the arguments for symbol_lookup.
type SymbolLookupRequest struct {
	Code string `json:"code"`
}

// SymbolListRequest represents the arguments for symbol_list.
type SymbolListRequest struct {
	Category string `json:"category,omitempty"`
}

// SymbolListOutput is the result of symbol_list.
type SymbolListOutput struct {
	Categories []catalog.Category `json:"categories"`
	Symbols    []catalog.Entry    `json:"symbols"`
}

// Handler implementations

// HandleStore handles the laundry_store tool call.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StoreRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Store(ctx, h.env.DB, ops.StoreInput{
		Garment:   input.Garment,
		Solutions: input.Solutions,
	})
	if err != nil {
		return errorResult(err), nil
	}
	h.env.Metrics.ObserveStore("add")

	return successResult(result)
}

// HandleFetch handles the laundry_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(ctx, h.env.DB, ops.FetchInput{
		ID:            input.ID,
		IncludeImages: input.IncludeImages,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetchMany handles the laundry_fetch_many tool call.
func (h *Handlers) HandleFetchMany(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchManyRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.FetchMany(ctx, h.env.DB, ops.FetchManyInput{
		IDs:           input.IDs,
		IncludeImages: input.IncludeImages,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the laundry_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Update(ctx, h.env.DB, ops.UpdateInput{
		ID:    input.ID,
		Patch: input.Patch,
	})
	if err != nil {
		return errorResult(err), nil
	}
	h.env.Metrics.ObserveStore("put")

	return successResult(result)
}

// HandleDelete handles the laundry_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.env.DB, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	if result.Deleted {
		h.env.Metrics.ObserveStore("del")
	}

	return successResult(result)
}

// HandleLatest handles the laundry_latest tool call.
func (h *Handlers) HandleLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LatestRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Latest(ctx, h.env.DB, ops.LatestInput{Full: input.Full})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the laundry_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.env.DB, ops.ListInput{
		Filter: input.filter(),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInventory handles the laundry_inventory tool call.
func (h *Handlers) HandleInventory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InventoryRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Inventory(ctx, h.env.DB, ops.InventoryInput{Filter: input.filter()})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the laundry_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Search(ctx, h.env.DB, ops.SearchInput{
		Query:  input.Query,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the laundry_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.env.DB, h.env.Config, ops.ExportInput{
		Path:   input.Path,
		Filter: input.filter(),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the laundry_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.env.DB, h.env.Config, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(strings.ToLower(strings.TrimSpace(input.Mode))),
	})
	if err != nil {
		return errorResult(err), nil
	}
	if result.Imported > 0 {
		h.env.Metrics.ObserveStore("import")
	}

	return successResult(result)
}

// HandleClear handles the laundry_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Clear(ctx, h.env.DB, ops.ClearInput{Confirm: input.Confirm})
	if err != nil {
		return errorResult(err), nil
	}
	h.env.Metrics.ObserveStore("clear")

	return successResult(result)
}

// HandleBulkDelete handles the laundry_bulk_delete tool call.
func (h *Handlers) HandleBulkDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkDeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.BulkDelete(ctx, h.env.DB, ops.BulkDeleteInput{
		IDs:    input.IDs,
		Filter: input.filter(),
	})
	if err != nil {
		return errorResult(err), nil
	}
	if result.Deleted > 0 {
		h.env.Metrics.ObserveStore("del")
	}

	return successResult(result)
}

// HandleSolve handles the laundry_solve tool call.
func (h *Handlers) HandleSolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SolveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Solve(ctx, h.env, ops.SolveInput{ID: input.ID, Force: input.Force})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHamper handles the laundry_hamper tool call.
func (h *Handlers) HandleHamper(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HamperRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.HamperSolve(ctx, h.env, ops.HamperInput{
		IDs:    input.IDs,
		All:    input.All,
		Format: input.Format,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSymbolLookup handles the symbol_lookup tool call.
func (h *Handlers) HandleSymbolLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SymbolLookupRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		return errorResult(errors.NewInvalidRequest("code is required")), nil
	}
	entry, ok := h.env.Catalog.Lookup(code)
	if !ok {
		return errorResult(errors.NewSymbolNotFound(code)), nil
	}

	return successResult(entry)
}

// HandleSymbolList handles the symbol_list tool call.
func (h *Handlers) HandleSymbolList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SymbolListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	categories := h.env.Catalog.Categories()
	category := strings.TrimSpace(input.Category)
	if category != "" && !hasCategory(categories, category) {
		names := make([]string, len(categories))
		for i, c := range categories {
			names[i] = c.Name
		}
		return errorResult(errors.NewInvalidRequest(fmt.Sprintf(
			"unknown category %q; known: %s", category, strings.Join(names, ", ")))), nil
	}

	return successResult(SymbolListOutput{
		Categories: categories,
		Symbols:    h.env.Catalog.List(category),
	})
}

func hasCategory(categories []catalog.Category, name string) bool {
	for _, c := range categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var errorObj map[string]any

	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		errorObj = map[string]any{
			"code":    "CANCELLED",
			"message": "request was cancelled",
			"status":  499,
		}
	default:
		hErr := errors.As(err)
		if hErr.Code == errors.ErrInternal {
			errorObj = map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			}
			break
		}

		// Keep caller context such as "items[2]: ..." from wrapped errors.
		msg := hErr.Message
		if err != error(hErr) {
			msg = err.Error()
		}
		errorObj = map[string]any{
			"code":    hErr.Code,
			"message": msg,
			"status":  hErr.Status,
		}
		if hErr.Details != nil {
			errorObj["details"] = hErr.Details
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
