package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsight/internal/indices"
)

func TestDefaultModelIsValid(t *testing.T) {
	require.NoError(t, DefaultModel().Validate())
}

func TestScoreUsesDefaultsForUndefinedIndices(t *testing.T) {
	s := DefaultModel().Score(indices.Set{})
	assert.InDelta(t, 75, s.Components.Greenness, 1e-9)
	assert.InDelta(t, 70, s.Components.Vigor, 1e-9)
	assert.InDelta(t, 65, s.Components.Nutrient, 1e-9)
	assert.InDelta(t, 60, s.Components.Water, 1e-9)
	assert.InDelta(t, 50, s.Components.Canopy, 1e-9)
	// 22.5 + 17.5 + 13 + 9 + 5
	assert.InDelta(t, 67, s.Overall, 1e-9)
	assert.Equal(t, Good, s.Status)
}

func TestScoreClampsComponents(t *testing.T) {
	s := DefaultModel().Score(indices.Set{
		indices.NDVI: 1.4,
		indices.EVI:  -3,
		indices.NDRE: 1,
		indices.LSWI: 1,
		indices.LAI:  12,
	})
	assert.Equal(t, 100.0, s.Components.Greenness)
	assert.Equal(t, 0.0, s.Components.Vigor)
	assert.Equal(t, 100.0, s.Components.Canopy)
	assert.InDelta(t, 75, s.Overall, 1e-9)
}

func TestStatusLadder(t *testing.T) {
	m := DefaultModel()
	cases := []struct {
		v    float64
		want Status
	}{
		{100, Excellent}, {80, Excellent}, {79.99, Good}, {65, Good},
		{64.9, Fair}, {50, Fair}, {49, Poor}, {35, Poor}, {34.99, Critical}, {0, Critical},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, m.status(c.v), "score %v", c.v)
	}
}

func TestScoreStaysInRange(t *testing.T) {
	m := DefaultModel()
	for _, v := range []float64{-1, -0.5, 0, 0.5, 1} {
		s := m.Score(indices.Set{indices.NDVI: v, indices.EVI: v, indices.NDRE: v, indices.LSWI: v, indices.LAI: v * 6})
		assert.GreaterOrEqual(t, s.Overall, 0.0)
		assert.LessOrEqual(t, s.Overall, 100.0)
	}
}

func TestValidateRejectsBadModels(t *testing.T) {
	m := DefaultModel()
	m.Weights.Canopy = 0.2
	assert.ErrorIs(t, m.Validate(), indices.ErrInvalidInput)

	m = DefaultModel()
	m.Thresholds.Good = 90
	assert.ErrorIs(t, m.Validate(), indices.ErrInvalidInput)

	m = DefaultModel()
	m.MaxLAI = 0
	assert.ErrorIs(t, m.Validate(), indices.ErrInvalidInput)
}
