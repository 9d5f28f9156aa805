package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/hamper/internal/catalog"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
	"github.com/hpungsan/hamper/internal/ops"
)

// Handlers contains HTTP route handlers for the basket API.
type Handlers struct {
	env     *ops.Env
	version string
}

// storeBody is the POST /laundry request body.
type storeBody struct {
	Garment   laundry.Garment    `json:"garment"`
	Solutions []laundry.Solution `json:"solutions,omitempty"`
}

// hamperBody is the POST /hamper request body.
type hamperBody struct {
	IDs    []int64 `json:"ids,omitempty"`
	All    bool    `json:"all,omitempty"`
	Format string  `json:"format,omitempty"`
}

// clearBody is the POST /laundry/clear request body.
type clearBody struct {
	Confirm bool `json:"confirm"`
}

// symbolDetail is a catalog entry with its markdown rendered.
type symbolDetail struct {
	catalog.Entry
	DetailHTML string `json:"detailHtml"`
}

func filterFromQuery(r *http.Request) ops.Filter {
	q := r.URL.Query()
	return ops.Filter{
		Type:     q.Get("type"),
		Material: q.Get("material"),
		Symbol:   q.Get("symbol"),
	}
}

// HandleList handles GET /laundry, newest first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(r.Context(), h.env.DB, ops.ListInput{
		Filter: filterFromQuery(r),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleStore handles POST /laundry.
func (h *Handlers) HandleStore(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[storeBody](w, r)
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}

	result, err := ops.Store(r.Context(), h.env.DB, ops.StoreInput{
		Garment:   body.Garment,
		Solutions: body.Solutions,
	})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	h.env.Metrics.ObserveStore("add")

	w.Header().Set("Location", "/laundry/"+strconv.FormatInt(result.ID, 10))
	renderJSON(w, http.StatusCreated, result)
}

// HandleLatest handles GET /laundry/latest.
func (h *Handlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Latest(r.Context(), h.env.DB, ops.LatestInput{Full: parseBoolParam(r, "full")})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSearch handles GET /laundry/search?q=.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Search(r.Context(), h.env.DB, ops.SearchInput{
		Query:  r.URL.Query().Get("q"),
		Limit:  parseIntParam(r, "limit", ops.DefaultSearchLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleInventory handles GET /laundry/inventory.
func (h *Handlers) HandleInventory(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Inventory(r.Context(), h.env.DB, ops.InventoryInput{Filter: filterFromQuery(r)})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleDetail handles GET /laundry/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}

	result, err := ops.Fetch(r.Context(), h.env.DB, ops.FetchInput{
		ID:            id,
		IncludeImages: optionalBoolParam(r, "include_images"),
	})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleUpdate handles PATCH /laundry/{id}.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	patch, err := decodeBody[laundry.Patch](w, r)
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}

	result, err := ops.Update(r.Context(), h.env.DB, ops.UpdateInput{ID: id, Patch: patch})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	h.env.Metrics.ObserveStore("put")
	renderJSON(w, http.StatusOK, result)
}

// HandleDelete handles DELETE /laundry/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}

	result, err := ops.Delete(r.Context(), h.env.DB, ops.DeleteInput{ID: id})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	if result.Deleted {
		h.env.Metrics.ObserveStore("del")
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSolve handles POST /laundry/{id}/solve.
func (h *Handlers) HandleSolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}

	result, err := ops.Solve(r.Context(), h.env, ops.SolveInput{ID: id, Force: parseBoolParam(r, "force")})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleClear handles POST /laundry/clear. The body must confirm.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[clearBody](w, r)
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}

	result, err := ops.Clear(r.Context(), h.env.DB, ops.ClearInput{Confirm: body.Confirm})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	h.env.Metrics.ObserveStore("clear")
	renderJSON(w, http.StatusOK, result)
}

// HandleHamper handles POST /hamper.
func (h *Handlers) HandleHamper(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[hamperBody](w, r)
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}

	result, err := ops.HamperSolve(r.Context(), h.env, ops.HamperInput{
		IDs:    body.IDs,
		All:    body.All,
		Format: body.Format,
	})
	if err != nil {
		renderError(w, h.env.Log, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSymbols handles GET /symbols?category=.
func (h *Handlers) HandleSymbols(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	categories := h.env.Catalog.Categories()
	if category != "" {
		known := false
		for _, c := range categories {
			known = known || c.Name == category
		}
		if !known {
			renderError(w, h.env.Log, errors.NewInvalidRequest("unknown category: "+category))
			return
		}
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"symbols":    h.env.Catalog.List(category),
	})
}

// HandleSymbol handles GET /symbols/{code}.
func (h *Handlers) HandleSymbol(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	entry, ok := h.env.Catalog.Lookup(code)
	if !ok {
		renderError(w, h.env.Log, errors.NewSymbolNotFound(code))
		return
	}
	renderJSON(w, http.StatusOK, symbolDetail{
		Entry:      entry,
		DetailHTML: renderMarkdown(entry.Detail),
	})
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.env.DB.PingContext(r.Context()); err != nil {
		renderError(w, h.env.Log, errors.NewStorageUnavailable(err))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": h.version})
}
