// Package draft holds the single in-progress garment of an analysis flow.
package draft

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/hamper/internal/laundry"
)

// Holder stages one draft at a time. It is safe for concurrent use and
// applies Set calls in the order they acquire the lock.
type Holder struct {
	mu      sync.Mutex
	current *laundry.Draft
	now     func() time.Time
}

// New returns an empty holder.
func New() *Holder {
	return &Holder{now: time.Now}
}

// Set merges patch into the active draft, starting a new draft with a fresh
// FlowID when none is active. Returns a copy of the resulting draft.
func (h *Holder) Set(patch laundry.DraftPatch) laundry.Draft {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		h.current = &laundry.Draft{FlowID: h.newFlowID()}
	}
	h.current.Apply(patch)
	return h.current.Clone()
}

// Update merges patch into the active draft only if it is still the flow
// identified by flowID. It never starts a draft; ok is false when the flow
// was cancelled or replaced.
func (h *Holder) Update(flowID string, patch laundry.DraftPatch) (d laundry.Draft, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil || h.current.FlowID != flowID {
		return laundry.Draft{}, false
	}
	h.current.Apply(patch)
	return h.current.Clone(), true
}

// Replace discards any active draft and starts a new flow from patch in one
// step. The discarded draft is returned, or nil if there was none.
func (h *Holder) Replace(patch laundry.DraftPatch) (d laundry.Draft, discarded *laundry.Draft) {
	h.mu.Lock()
	defer h.mu.Unlock()

	discarded = h.current
	h.current = &laundry.Draft{FlowID: h.newFlowID()}
	h.current.Apply(patch)
	return h.current.Clone(), discarded
}

// Get returns a copy of the active draft, or nil when there is none.
func (h *Holder) Get() *laundry.Draft {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return nil
	}
	d := h.current.Clone()
	return &d
}

// Active reports whether a draft is in progress.
func (h *Holder) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}

// Clear discards the active draft and returns it, or nil if there was none.
func (h *Holder) Clear() *laundry.Draft {
	h.mu.Lock()
	defer h.mu.Unlock()

	d := h.current
	h.current = nil
	return d
}

// Finish clears the active draft only if it is still the flow identified by
// flowID. Reports whether it did.
func (h *Holder) Finish(flowID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil || h.current.FlowID != flowID {
		return false
	}
	h.current = nil
	return true
}

func (h *Holder) newFlowID() string {
	return ulid.MustNew(ulid.Timestamp(h.now()), rand.Reader).String()
}
