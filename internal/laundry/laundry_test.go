package laundry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/hamper/internal/errors"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func sampleGarment() Garment {
	return Garment{
		Type:           "shirt",
		Color:          "white",
		Materials:      []string{"cotton", "polyester"},
		LaundrySymbols: []Symbol{{Code: "machineWash30", Description: "Machine wash at 30C"}},
		AdditionalInfo: []string{"wash inside out"},
		Image: Images{
			Label:   Image{Format: FormatJPEG, Data: "aGVsbG8="},
			Clothes: &Image{Format: FormatPNG, Data: "d29ybGQ="},
		},
	}
}

func TestGarmentApply_MergesFields(t *testing.T) {
	var g Garment
	g.Apply(GarmentPatch{Type: strPtr("shirt")})
	g.Apply(GarmentPatch{Color: strPtr("blue")})

	assert.Equal(t, "shirt", g.Type)
	assert.Equal(t, "blue", g.Color)
}

func TestGarmentApply_EmptySliceClears(t *testing.T) {
	g := Garment{Materials: []string{"cotton", "wool"}}

	g.Apply(GarmentPatch{Materials: []string{}})

	require.NotNil(t, g.Materials)
	assert.Empty(t, g.Materials)
}

func TestGarmentApply_AbsentSliceKeeps(t *testing.T) {
	g := Garment{Materials: []string{"cotton", "wool"}}

	g.Apply(GarmentPatch{})

	assert.Equal(t, []string{"cotton", "wool"}, g.Materials)
}

func TestGarmentApply_SliceReplacedNotAppended(t *testing.T) {
	g := Garment{AdditionalInfo: []string{"a", "b"}}

	g.Apply(GarmentPatch{AdditionalInfo: []string{"c"}})

	assert.Equal(t, []string{"c"}, g.AdditionalInfo)
}

func TestGarmentApply_ImageMergesRecursively(t *testing.T) {
	g := sampleGarment()
	label := Image{Format: FormatPNG, Data: "bmV3"}

	g.Apply(GarmentPatch{Image: &ImagePatch{Label: &label}})

	assert.Equal(t, label, g.Image.Label)
	require.NotNil(t, g.Image.Clothes, "clothes should survive a label-only patch")
	assert.Equal(t, "d29ybGQ=", g.Image.Clothes.Data)
}

func TestGarmentApply_DoesNotAlias(t *testing.T) {
	materials := []string{"linen"}
	var g Garment
	g.Apply(GarmentPatch{Materials: materials})

	materials[0] = "mutated"
	assert.Equal(t, "linen", g.Materials[0])
}

func TestDraftApply_Confirm(t *testing.T) {
	var d Draft
	d.Apply(DraftPatch{DidConfirmAnalysis: boolPtr(true)})
	assert.True(t, d.DidConfirmAnalysis)

	d.Apply(DraftPatch{GarmentPatch: GarmentPatch{Type: strPtr("pants")}})
	assert.True(t, d.DidConfirmAnalysis, "unrelated patch must not reset confirmation")
}

func TestLaundryApply_Solutions(t *testing.T) {
	l := Laundry{ID: 7, Solutions: []Solution{{Name: SolutionWash, Contents: "cold"}}}

	l.Apply(Patch{Solutions: []Solution{{Name: SolutionDry, Contents: "hang"}}})

	assert.Equal(t, int64(7), l.ID)
	require.Len(t, l.Solutions, 1)
	assert.Equal(t, SolutionDry, l.Solutions[0].Name)
	assert.Nil(t, l.Solution(SolutionWash))
	assert.Equal(t, "hang", l.Solution(SolutionDry).Contents)
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, (&Patch{}).IsEmpty())
	assert.True(t, (&Patch{GarmentPatch: GarmentPatch{Image: &ImagePatch{}}}).IsEmpty())
	assert.False(t, (&Patch{Solutions: []Solution{}}).IsEmpty())
	assert.False(t, (&Patch{GarmentPatch: GarmentPatch{Color: strPtr("")}}).IsEmpty())
}

func TestPromote_CopiesWithoutSharing(t *testing.T) {
	d := Draft{FlowID: "01FLOW", Garment: sampleGarment(), DidConfirmAnalysis: true}

	rec := d.Promote()
	rec.Materials[0] = "changed"
	rec.Image.Clothes.Data = "changed"

	assert.Equal(t, int64(0), rec.ID)
	assert.Equal(t, "cotton", d.Materials[0])
	assert.Equal(t, "d29ybGQ=", d.Image.Clothes.Data)
	assert.NotNil(t, rec.Solutions)
}

func TestHasSignal(t *testing.T) {
	tests := []struct {
		name string
		g    Garment
		want bool
	}{
		{"empty", Garment{}, false},
		{"only print flag", Garment{HasPrintOrTrims: true}, false},
		{"only image", Garment{Image: Images{Label: Image{Format: FormatJPEG, Data: "x"}}}, false},
		{"type", Garment{Type: "shirt"}, true},
		{"color", Garment{Color: "red"}, true},
		{"materials", Garment{Materials: []string{"silk"}}, true},
		{"info", Garment{AdditionalInfo: []string{"dry clean"}}, true},
		{"symbols", Garment{LaundrySymbols: []Symbol{{Code: "doNotBleach"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.g.HasSignal())
		})
	}
}

func TestNormalize(t *testing.T) {
	g := Garment{
		Type:      "  T-shirt \n",
		Color:     "navy   blue",
		Materials: []string{" cotton ", "", "   "},
		LaundrySymbols: []Symbol{
			{Code: "machineWash30", Description: "first"},
			{Code: " machineWash30 ", Description: "dup"},
			{Code: "", Description: "no code"},
			{Code: "doNotTumbleDry", Description: "  do not   tumble "},
		},
	}

	g.Normalize()

	assert.Equal(t, "T-shirt", g.Type)
	assert.Equal(t, "navy blue", g.Color)
	assert.Equal(t, []string{"cotton"}, g.Materials)
	assert.Nil(t, g.AdditionalInfo)
	require.Len(t, g.LaundrySymbols, 2)
	assert.Equal(t, "first", g.LaundrySymbols[0].Description)
	assert.Equal(t, "do not tumble", g.LaundrySymbols[1].Description)
}

func TestValidate(t *testing.T) {
	valid := Laundry{Garment: sampleGarment(), Solutions: []Solution{{Name: SolutionWash}, {Name: SolutionDry}}}
	require.NoError(t, Validate(&valid))

	badFormat := valid.Clone()
	badFormat.Image.Label.Format = "gif"
	assert.True(t, errors.Is(Validate(&badFormat), errors.ErrInvalidRequest))

	noData := valid.Clone()
	noData.Image.Clothes.Data = " "
	assert.True(t, errors.Is(Validate(&noData), errors.ErrInvalidRequest))

	dup := valid.Clone()
	dup.Solutions = append(dup.Solutions, Solution{Name: SolutionWash})
	assert.True(t, errors.Is(Validate(&dup), errors.ErrInvalidRequest))

	unknown := valid.Clone()
	unknown.Solutions = []Solution{{Name: "iron"}}
	assert.True(t, errors.Is(Validate(&unknown), errors.ErrInvalidRequest))
}

func TestDescribe(t *testing.T) {
	l := Laundry{ID: 3, Garment: sampleGarment()}

	d := l.Describe()
	d.Materials[0] = "changed"

	assert.Equal(t, int64(3), d.ID)
	assert.Equal(t, "shirt", d.Type)
	assert.Equal(t, "cotton", l.Materials[0])
}
