package web

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/logger"
)

// maxBodyBytes bounds request bodies; records carry base64 images.
const maxBodyBytes = 32 << 20

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes the error envelope used by every route:
// {"error": {"code", "message", "status", "details"}}.
// INTERNAL errors are logged and never expose their cause.
func renderError(w http.ResponseWriter, log *logger.Logger, err error) {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		renderJSON(w, 499, map[string]any{
			"error": map[string]any{"code": "CANCELLED", "message": "request was cancelled", "status": 499},
		})
		return
	}

	hErr := errors.As(err)
	errorObj := map[string]any{
		"code":    string(hErr.Code),
		"message": hErr.Message,
		"status":  hErr.Status,
	}
	if hErr.Code == errors.ErrInternal {
		log.Error("request failed", "error", err)
		errorObj["message"] = "an internal error occurred"
	} else if hErr.Details != nil {
		errorObj["details"] = hErr.Details
	}

	renderJSON(w, hErr.Status, map[string]any{"error": errorObj})
}

// decodeBody reads a JSON request body into T.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(&v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return v, errors.NewInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		case stderrors.Is(err, io.EOF):
			return v, errors.NewInvalidRequest("request body is required")
		default:
			return v, errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	return v, nil
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid laundry id %q", raw))
	}
	return id, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := strings.ToLower(r.URL.Query().Get(name))
	return s == "true" || s == "1"
}

// optionalBoolParam returns nil when the parameter is absent.
func optionalBoolParam(r *http.Request, name string) *bool {
	if !r.URL.Query().Has(name) {
		return nil
	}
	v := parseBoolParam(r, name)
	return &v
}
