package crops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()
	assert.Equal(t, "wheat", tbl.DefaultName())
	assert.Equal(t, []string{"cotton", "maize", "mustard", "potato", "rice", "soybean", "sugarcane", "wheat"}, tbl.Names())

	p, ok := tbl.Lookup("  Maize ")
	require.True(t, ok)
	assert.Equal(t, "maize", p.Name)
	assert.Equal(t, 6.0, p.CarbonRate)
	assert.Equal(t, YieldParams{Base: 4, Max: 10, NDVI: 1.5, EVI: 6, LAI: 1}, p.Yield)
}

func TestLookupFallsBackToDefault(t *testing.T) {
	p, ok := Default().Lookup("quinoa")
	assert.False(t, ok)
	assert.Equal(t, "wheat", p.Name)
	assert.Equal(t, 3.5, p.CarbonRate)
}

func TestParseValidation(t *testing.T) {
	cases := map[string]string{
		"missing default": "default: teff\ncrops:\n  wheat: {yield: {base: 1, max: 2}, carbon_rate: 1}\n",
		"inverted bounds": "default: wheat\ncrops:\n  wheat: {yield: {base: 3, max: 2}, carbon_rate: 1}\n",
		"zero carbon":     "default: wheat\ncrops:\n  wheat: {yield: {base: 1, max: 2}, carbon_rate: 0}\n",
		"bad yaml":        "default: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crops.yaml")
	doc := "default: Barley\ncrops:\n  BARLEY: {yield: {base: 2, max: 5, ndvi: 1, evi: 3, lai: 0.5}, carbon_rate: 3.2}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tbl, err := Load(path)
	require.NoError(t, err)
	p, ok := tbl.Lookup("barley")
	assert.True(t, ok)
	assert.Equal(t, 3.2, p.CarbonRate)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
