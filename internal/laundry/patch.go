package laundry

// Merge policy shared by draft updates and record puts:
//   - scalar (pointer) fields overwrite when non-nil
//   - slice fields overwrite when non-nil, so an explicit empty slice clears
//   - the image object merges field by field
//
// A nil field means "absent" and leaves the current value untouched.

// ImagePatch is a partial update of Images.
type ImagePatch struct {
	Label   *Image `json:"label,omitempty"`
	Clothes *Image `json:"clothes,omitempty"`
}

// GarmentPatch is a partial update of the fields shared by drafts and records.
type GarmentPatch struct {
	Type            *string     `json:"type,omitempty"`
	Color           *string     `json:"color,omitempty"`
	Materials       []string    `json:"materials"`
	HasPrintOrTrims *bool       `json:"hasPrintOrTrims,omitempty"`
	LaundrySymbols  []Symbol    `json:"laundrySymbols"`
	AdditionalInfo  []string    `json:"additionalInfo"`
	Image           *ImagePatch `json:"image,omitempty"`
}

// DraftPatch is a partial update of a Draft.
type DraftPatch struct {
	GarmentPatch
	DidConfirmAnalysis *bool `json:"didConfirmAnalysis,omitempty"`
}

// Patch is a partial update of a stored Laundry. The ID is never patched.
type Patch struct {
	GarmentPatch
	Solutions []Solution `json:"solutions"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *GarmentPatch) IsEmpty() bool {
	return p.Type == nil && p.Color == nil && p.Materials == nil &&
		p.HasPrintOrTrims == nil && p.LaundrySymbols == nil &&
		p.AdditionalInfo == nil && (p.Image == nil || (p.Image.Label == nil && p.Image.Clothes == nil))
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.GarmentPatch.IsEmpty() && p.Solutions == nil
}

// Apply merges p into g. Incoming slices are copied, never aliased.
func (g *Garment) Apply(p GarmentPatch) {
	if p.Type != nil {
		g.Type = *p.Type
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
	if p.Materials != nil {
		g.Materials = cloneSlice(p.Materials)
	}
	if p.HasPrintOrTrims != nil {
		g.HasPrintOrTrims = *p.HasPrintOrTrims
	}
	if p.LaundrySymbols != nil {
		g.LaundrySymbols = cloneSlice(p.LaundrySymbols)
	}
	if p.AdditionalInfo != nil {
		g.AdditionalInfo = cloneSlice(p.AdditionalInfo)
	}
	if p.Image != nil {
		if p.Image.Label != nil {
			g.Image.Label = *p.Image.Label
		}
		if p.Image.Clothes != nil {
			clothes := *p.Image.Clothes
			g.Image.Clothes = &clothes
		}
	}
}

// Apply merges p into d.
func (d *Draft) Apply(p DraftPatch) {
	d.Garment.Apply(p.GarmentPatch)
	if p.DidConfirmAnalysis != nil {
		d.DidConfirmAnalysis = *p.DidConfirmAnalysis
	}
}

// Apply merges p into l. The ID is left untouched.
func (l *Laundry) Apply(p Patch) {
	l.Garment.Apply(p.GarmentPatch)
	if p.Solutions != nil {
		l.Solutions = cloneSlice(p.Solutions)
	}
}
