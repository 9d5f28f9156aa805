package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Shared JSON schemas for nested arguments.
var (
	idItems = map[string]any{"type": "integer", "minimum": 1}

	imageSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"format": map[string]any{"type": "string", "enum": []string{"jpeg", "png"}},
			"data":   map[string]any{"type": "string", "description": "Base64 payload or data URI"},
		},
		"required": []string{"format", "data"},
	}

	symbolSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
		},
		"required": []string{"code"},
	}

	solutionSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":     map[string]any{"type": "string", "enum": []string{"wash", "dry", "etc"}},
			"contents": map[string]any{"type": "string"},
		},
		"required": []string{"name", "contents"},
	}

	garmentProperties = map[string]any{
		"type":            map[string]any{"type": "string"},
		"color":           map[string]any{"type": "string"},
		"materials":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"hasPrintOrTrims": map[string]any{"type": "boolean"},
		"laundrySymbols":  map[string]any{"type": "array", "items": symbolSchema},
		"additionalInfo":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"image": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"label":   imageSchema,
				"clothes": imageSchema,
			},
		},
	}
)

// filterOptions adds the shared type/material/symbol filter arguments.
func filterOptions(verb string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("type", mcp.Description("Only "+verb+" garments of this type (case-insensitive)")),
		mcp.WithString("material", mcp.Description("Only "+verb+" garments containing this material")),
		mcp.WithString("symbol", mcp.Description("Only "+verb+" garments carrying this care-symbol code")),
	}
}

var storeToolDef = mcp.NewTool("laundry_store",
	mcp.WithDescription("Store an analyzed garment in the basket. Requires a label image and at least one of type, color, materials, laundrySymbols or additionalInfo."),
	mcp.WithObject("garment",
		mcp.Required(),
		mcp.Description("Garment fields"),
		mcp.Properties(garmentProperties),
	),
	mcp.WithArray("solutions",
		mcp.Description("Optional care solutions, at most one per name"),
		mcp.Items(solutionSchema),
	),
)

var fetchToolDef = mcp.NewTool("laundry_fetch",
	mcp.WithDescription("Fetch one basket record by id."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id"), mcp.Min(1)),
	mcp.WithBoolean("include_images", mcp.Description("Include base64 image payloads (default true)")),
)

var fetchManyToolDef = mcp.NewTool("laundry_fetch_many",
	mcp.WithDescription("Fetch up to 50 basket records by id. Missing ids are reported per item."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("ids", mcp.Required(), mcp.Description("Record ids"), mcp.Items(idItems)),
	mcp.WithBoolean("include_images", mcp.Description("Include base64 image payloads (default true)")),
)

var updateToolDef = mcp.NewTool("laundry_update",
	mcp.WithDescription("Patch a basket record. Absent fields are kept; an empty array clears a list field."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id"), mcp.Min(1)),
	mcp.WithObject("patch",
		mcp.Required(),
		mcp.Description("Fields to change, plus optional solutions"),
		mcp.Properties(withSolutions(garmentProperties)),
	),
)

var deleteToolDef = mcp.NewTool("laundry_delete",
	mcp.WithDescription("Delete one basket record. Deleting a missing id is not an error."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id"), mcp.Min(1)),
)

var latestToolDef = mcp.NewTool("laundry_latest",
	mcp.WithDescription("Return the most recently stored garment."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithBoolean("full", mcp.Description("Include the full record with images")),
)

var listToolDef = mcp.NewTool("laundry_list",
	append([]mcp.ToolOption{
		mcp.WithDescription("List basket records newest first as summaries."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
		mcp.WithNumber("offset", mcp.Description("Records to skip")),
	}, filterOptions("list")...)...,
)

var inventoryToolDef = mcp.NewTool("laundry_inventory",
	append([]mcp.ToolOption{
		mcp.WithDescription("Count basket records by type, material and care symbol."),
		mcp.WithReadOnlyHintAnnotation(true),
	}, filterOptions("count")...)...,
)

var searchToolDef = mcp.NewTool("laundry_search",
	mcp.WithDescription("Full-text search over type, color, materials, symbols and notes. Every term must match."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var exportToolDef = mcp.NewTool("laundry_export",
	append([]mcp.ToolOption{
		mcp.WithDescription("Write the basket to a JSONL backup file."),
		mcp.WithString("path", mcp.Description("Destination .jsonl path (default ~/.hamper/exports/basket-<timestamp>.jsonl)")),
	}, filterOptions("export")...)...,
)

var importToolDef = mcp.NewTool("laundry_import",
	mcp.WithDescription("Load a JSONL backup written by laundry_export."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Backup .jsonl path")),
	mcp.WithString("mode",
		mcp.Description("error: keep ids, abort on any problem; replace: overwrite ids; append: assign new ids"),
		mcp.Enum("error", "replace", "append"),
	),
)

var clearToolDef = mcp.NewTool("laundry_clear",
	mcp.WithDescription("Remove every record from the basket."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
)

var bulkDeleteToolDef = mcp.NewTool("laundry_bulk_delete",
	append([]mcp.ToolOption{
		mcp.WithDescription("Delete records by ids or by filter (not both)."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithArray("ids", mcp.Description("Record ids (max 500)"), mcp.Items(idItems)),
	}, filterOptions("delete")...)...,
)

var solveToolDef = mcp.NewTool("laundry_solve",
	mcp.WithDescription("Generate care solutions for a stored garment and save them on the record."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id"), mcp.Min(1)),
	mcp.WithBoolean("force", mcp.Description("Regenerate even if solutions exist")),
)

var hamperToolDef = mcp.NewTool("laundry_hamper",
	mcp.WithDescription("Group basket garments into loads that can be washed together."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("ids", mcp.Description("Record ids (max 50)"), mcp.Items(idItems)),
	mcp.WithBoolean("all", mcp.Description("Use the whole basket instead of ids")),
	mcp.WithString("format", mcp.Description("Result format"), mcp.Enum("json", "markdown")),
)

var symbolLookupToolDef = mcp.NewTool("symbol_lookup",
	mcp.WithDescription("Explain a care symbol by code."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("code", mcp.Required(), mcp.Description("Symbol code, e.g. machineWash30")),
)

var symbolListToolDef = mcp.NewTool("symbol_list",
	mcp.WithDescription("List known care symbols, optionally for one category."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("category", mcp.Description("Category name, e.g. wash or dry")),
)

func withSolutions(props map[string]any) map[string]any {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	out["solutions"] = map[string]any{"type": "array", "items": solutionSchema}
	return out
}
