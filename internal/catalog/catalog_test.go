package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Parses(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, c.List(""))
	assert.Len(t, c.Categories(), 5)
}

func TestLookup(t *testing.T) {
	c := MustDefault()

	e, ok := c.Lookup("machineWash40")
	require.True(t, ok)
	assert.Equal(t, "wash", e.Category)
	assert.Contains(t, e.Description, "40°C")

	_, ok = c.Lookup(" machineWash40 ")
	assert.True(t, ok, "lookup should trim the code")

	_, ok = c.Lookup("spinCycleOfDoom")
	assert.False(t, ok)
}

func TestList_ByCategory(t *testing.T) {
	c := MustDefault()

	for _, e := range c.List("iron") {
		assert.Equal(t, "iron", e.Category)
	}
	assert.Empty(t, c.List("nope"))
}

func TestUnknown(t *testing.T) {
	c := MustDefault()

	got := c.Unknown([]string{"zeta", "machineWash30", "alpha", "zeta"})
	assert.Equal(t, []string{"alpha", "zeta"}, got)
	assert.Nil(t, c.Unknown([]string{"doNotBleach"}))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "symbols: [::"},
		{"missing code", "categories: [{name: wash}]\nsymbols: [{category: wash}]"},
		{"duplicate code", "categories: [{name: wash}]\nsymbols: [{code: a, category: wash}, {code: a, category: wash}]"},
		{"unknown category", "categories: [{name: wash}]\nsymbols: [{code: a, category: dry}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
