package stress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cropsight/internal/indices"
)

func TestDetectDefaults(t *testing.T) {
	a := DefaultModel().Detect(indices.Set{}, nil)

	assert.InDelta(t, 100.0/6, a.Water.Level, 1e-9)
	assert.Equal(t, Normal, a.Water.Status)
	assert.Equal(t, "LSWI", a.Water.Indicator)
	assert.Equal(t, 0.2, a.Water.Value)

	assert.InDelta(t, 12.5, a.Nutrient.Level, 1e-9)
	assert.Equal(t, 0.0, a.Heat.Level)
	assert.Equal(t, 0.0, a.Vegetation.Level)
	assert.Equal(t, 0.0, a.Soil.Level)
}

func TestDetectNegativeLSWIAmplified(t *testing.T) {
	a := DefaultModel().Detect(indices.Set{indices.LSWI: -0.2}, nil)
	// linear: 0.5/0.6*100 = 83.3; amplified: 0.2*200 = 40
	assert.InDelta(t, 500.0/6, a.Water.Level, 1e-9)
	assert.Equal(t, Critical, a.Water.Status)

	a = DefaultModel().Detect(indices.Set{indices.LSWI: -0.45}, nil)
	assert.Equal(t, 100.0, a.Water.Level)
}

func TestDetectHeat(t *testing.T) {
	m := DefaultModel()
	assert.Equal(t, 0.0, m.Detect(nil, &Weather{TemperatureC: 24}).Heat.Level)

	a := m.Detect(nil, &Weather{TemperatureC: 35})
	assert.InDelta(t, 50, a.Heat.Level, 1e-9)
	assert.Equal(t, High, a.Heat.Status)
	assert.Equal(t, 35.0, a.Heat.Value)

	assert.Equal(t, 100.0, m.Detect(nil, &Weather{TemperatureC: 50}).Heat.Level)
}

func TestDetectSoilAndVegetation(t *testing.T) {
	a := DefaultModel().Detect(indices.Set{indices.BSI: 0.4, indices.NDVI: 0.1}, nil)
	assert.Equal(t, 100.0, a.Soil.Level)
	assert.Equal(t, Critical, a.Soil.Status)
	assert.InDelta(t, 40, a.Vegetation.Level, 1e-9)
	assert.Equal(t, Moderate, a.Vegetation.Status)
}

func TestLadder(t *testing.T) {
	cases := map[float64]Status{0: Normal, 24.99: Normal, 25: Moderate, 49.9: Moderate, 50: High, 74.9: High, 75: Critical, 100: Critical}
	for v, want := range cases {
		assert.Equal(t, want, DefaultLadder.Classify(v), "level %v", v)
	}
}

func TestLevelsAlwaysInRange(t *testing.T) {
	m := DefaultModel()
	for _, v := range []float64{-5, -1, 0, 0.3, 1, 5} {
		a := m.Detect(indices.Set{indices.LSWI: v, indices.NDRE: v, indices.NDVI: v, indices.BSI: v}, &Weather{TemperatureC: v * 20})
		for _, l := range []Level{a.Water, a.Nutrient, a.Heat, a.Vegetation, a.Soil} {
			assert.GreaterOrEqual(t, l.Level, 0.0)
			assert.LessOrEqual(t, l.Level, 100.0)
		}
	}
}
