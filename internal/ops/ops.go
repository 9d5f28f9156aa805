package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/hamper/internal/api"
	"github.com/hpungsan/hamper/internal/catalog"
	"github.com/hpungsan/hamper/internal/config"
	"github.com/hpungsan/hamper/internal/draft"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/intake"
	"github.com/hpungsan/hamper/internal/laundry"
	"github.com/hpungsan/hamper/internal/logger"
	"github.com/hpungsan/hamper/internal/metrics"
)

// Pagination limits
const (
	DefaultListLimit   = 20
	MaxListLimit       = 100
	MaxFetchManyItems  = 50
	MaxBulkDeleteItems = 500
	MaxHamperItems     = 50
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Remote is the part of the API client the flows depend on.
// *api.Client satisfies it; tests substitute a fake.
type Remote interface {
	Analyze(ctx context.Context, img laundry.Image) (*laundry.Garment, error)
	ValidateImage(ctx context.Context, kind api.ImageKind, img laundry.Image) (bool, error)
	Solution(ctx context.Context, d laundry.Descriptor) ([]laundry.Solution, error)
	HamperSolution(ctx context.Context, ds []laundry.Descriptor) ([]api.Group, error)
}

// Env bundles the collaborators of the capture and solution flows.
// Basket operations only need the database and take it directly.
type Env struct {
	DB      *sql.DB
	Config  *config.Config
	Draft   *draft.Holder
	Remote  Remote
	Intake  *intake.Pipeline
	Catalog *catalog.Catalog
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

// NewEnv fills in defaults for every optional collaborator.
func NewEnv(database *sql.DB, cfg *config.Config, remote Remote, log *logger.Logger, m *metrics.Metrics) *Env {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Env{
		DB:      database,
		Config:  cfg,
		Draft:   draft.New(),
		Remote:  remote,
		Intake:  intake.New(log, m),
		Catalog: catalog.MustDefault(),
		Log:     log,
		Metrics: m,
	}
}

func (e *Env) remote() (Remote, error) {
	if e.Remote == nil {
		return nil, errors.NewInvalidRequest("remote API is not configured")
	}
	return e.Remote, nil
}

// Summary is the list view of a stored record. Image payloads are omitted.
type Summary struct {
	ID              int64    `json:"id"`
	Type            string   `json:"type"`
	Color           string   `json:"color"`
	Materials       []string `json:"materials"`
	HasPrintOrTrims bool     `json:"hasPrintOrTrims"`
	SymbolCodes     []string `json:"symbolCodes"`
	HasClothesImage bool     `json:"hasClothesImage"`
	Solved          bool     `json:"solved"`
}

// Summarize builds the list view of l.
func Summarize(l *laundry.Laundry) Summary {
	codes := make([]string, 0, len(l.LaundrySymbols))
	for _, s := range l.LaundrySymbols {
		codes = append(codes, s.Code)
	}
	materials := l.Materials
	if materials == nil {
		materials = []string{}
	}
	return Summary{
		ID:              l.ID,
		Type:            l.Type,
		Color:           l.Color,
		Materials:       materials,
		HasPrintOrTrims: l.HasPrintOrTrims,
		SymbolCodes:     codes,
		HasClothesImage: l.Image.Clothes != nil,
		Solved:          len(l.Solutions) > 0,
	}
}

// clampLimit applies the default and maximum page sizes.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

// errorParts extracts the code and message of any error for per-item reports.
func errorParts(err error) (string, string) {
	he := errors.As(err)
	return string(he.Code), he.Message
}
