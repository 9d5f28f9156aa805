package laundry

// ImageFormat is the encoding of a stored image payload.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

// Image is an encoded picture attached to a garment.
// Data is either the bare base64 payload or a full data URI.
type Image struct {
	Format ImageFormat `json:"format"`
	Data   string      `json:"data"`
}

// Images holds the care-label photo and the optional garment photo.
type Images struct {
	Label   Image  `json:"label"`
	Clothes *Image `json:"clothes"`
}

// Symbol is one care symbol found on a label.
type Symbol struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// SolutionName identifies a section of the care instructions.
type SolutionName string

const (
	SolutionWash SolutionName = "wash"
	SolutionDry  SolutionName = "dry"
	SolutionEtc  SolutionName = "etc"
)

// Valid reports whether n is one of the known solution names.
func (n SolutionName) Valid() bool {
	switch n {
	case SolutionWash, SolutionDry, SolutionEtc:
		return true
	}
	return false
}

// Solution is generated care advice for one section.
type Solution struct {
	Name     SolutionName `json:"name"`
	Contents string       `json:"contents"`
}

// Garment holds the fields shared by a draft and a stored record.
type Garment struct {
	Type            string   `json:"type"`
	Color           string   `json:"color"`
	Materials       []string `json:"materials"`
	HasPrintOrTrims bool     `json:"hasPrintOrTrims"`
	LaundrySymbols  []Symbol `json:"laundrySymbols"`
	AdditionalInfo  []string `json:"additionalInfo"`
	Image           Images   `json:"image"`
}

// Laundry is one analyzed garment stored in the basket.
type Laundry struct {
	// ID is assigned by the store on insert and never changes afterwards
	ID int64 `json:"id"`

	Garment

	// Solutions holds at most one entry per SolutionName
	Solutions []Solution `json:"solutions"`
}

// Draft is a garment under construction during one capture/analysis flow.
// It lives only in memory and is promoted to a Laundry on commit.
type Draft struct {
	// FlowID is a ULID that correlates log lines of one analysis flow
	FlowID string `json:"flowId"`

	Garment

	DidConfirmAnalysis bool `json:"didConfirmAnalysis"`
}

// Descriptor is the subset of a garment the solution service needs.
type Descriptor struct {
	ID              int64    `json:"id,omitempty"`
	Type            string   `json:"type"`
	Color           string   `json:"color"`
	Materials       []string `json:"materials"`
	HasPrintOrTrims bool     `json:"hasPrintOrTrims"`
	LaundrySymbols  []Symbol `json:"laundrySymbols"`
	AdditionalInfo  []string `json:"additionalInfo"`
}

// Describe builds the solution-service descriptor for a stored record.
func (l *Laundry) Describe() Descriptor {
	g := l.Garment.Clone()
	return Descriptor{
		ID:              l.ID,
		Type:            g.Type,
		Color:           g.Color,
		Materials:       g.Materials,
		HasPrintOrTrims: g.HasPrintOrTrims,
		LaundrySymbols:  g.LaundrySymbols,
		AdditionalInfo:  g.AdditionalInfo,
	}
}

// Solution returns the solution with the given name, or nil.
func (l *Laundry) Solution(name SolutionName) *Solution {
	for i := range l.Solutions {
		if l.Solutions[i].Name == name {
			return &l.Solutions[i]
		}
	}
	return nil
}

// HasSignal reports whether the garment carries any analysis result at all.
// A label with no type, color, materials, notes or symbols is unusable.
func (g *Garment) HasSignal() bool {
	return g.Type != "" ||
		g.Color != "" ||
		len(g.Materials) > 0 ||
		len(g.AdditionalInfo) > 0 ||
		len(g.LaundrySymbols) > 0
}

// Clone returns a deep copy of g.
func (g Garment) Clone() Garment {
	out := g
	out.Materials = cloneSlice(g.Materials)
	out.LaundrySymbols = cloneSlice(g.LaundrySymbols)
	out.AdditionalInfo = cloneSlice(g.AdditionalInfo)
	if g.Image.Clothes != nil {
		clothes := *g.Image.Clothes
		out.Image.Clothes = &clothes
	}
	return out
}

// Clone returns a deep copy of l.
func (l Laundry) Clone() Laundry {
	out := l
	out.Garment = l.Garment.Clone()
	out.Solutions = cloneSlice(l.Solutions)
	return out
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	out := d
	out.Garment = d.Garment.Clone()
	return out
}

// Promote copies the draft into a new record without an ID.
// The result shares no memory with the draft.
func (d *Draft) Promote() *Laundry {
	return &Laundry{
		Garment:   d.Garment.Clone(),
		Solutions: []Solution{},
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
