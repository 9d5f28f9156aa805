package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/hamper/internal/errors"
)

// decode binds tool arguments onto T. Type mismatches are the caller's
// fault and come back as INVALID_REQUEST.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var args T
	if err := req.BindArguments(&args); err != nil {
		return args, errors.NewInvalidRequest("invalid arguments: " + err.Error())
	}
	return args, nil
}
