package phenology

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsight/internal/indices"
)

func series(values ...float64) []Point {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{Date: start.AddDate(0, 0, 10*i), NDVI: v}
	}
	return pts
}

func TestClassifyShortSeries(t *testing.T) {
	for _, pts := range [][]Point{nil, series(0.5), series(0.5, 0.6)} {
		s, err := Classify(pts)
		require.NoError(t, err)
		assert.Equal(t, "Unknown", s.Name)
		assert.Equal(t, CodeUnknown, s.Code)
		assert.Equal(t, 0.0, s.Confidence)
	}
}

func TestClassifyLadder(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		code   int
		dir    Direction
	}{
		{"bare", []float64{0.3, 0.2, 0.15}, CodeBareSoil, Decreasing},
		{"emergence", []float64{0.15, 0.2, 0.25}, CodeEmergence, Increasing},
		{"vegetative", []float64{0.3, 0.35, 0.45}, CodeVegetative, Increasing},
		{"active", []float64{0.4, 0.5, 0.6}, CodeActiveGrowth, Increasing},
		{"peak", []float64{0.8, 0.8, 0.8}, CodePeak, Stable},
		{"maturation", []float64{0.8, 0.7, 0.55}, CodeMaturation, Decreasing},
		{"senescence", []float64{0.6, 0.45, 0.3}, CodeSenescence, Decreasing},
		{"flat mid", []float64{0.45, 0.45, 0.45}, CodeUnknown, Stable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := Classify(series(c.values...))
			require.NoError(t, err)
			assert.Equal(t, c.code, s.Code)
			assert.Equal(t, stageNames[c.code], s.Name)
			assert.Equal(t, c.dir, s.Direction)
			if c.code == CodeUnknown {
				assert.Equal(t, 0.0, s.Confidence)
			} else {
				assert.Equal(t, 60.0, s.Confidence)
			}
		})
	}
}

func TestClassifyHarvestReadyOnFlatLowCanopy(t *testing.T) {
	s, err := Classify(series(0.22, 0.22, 0.22))
	require.NoError(t, err)
	assert.Equal(t, CodeHarvestReady, s.Code)
}

func TestClassifyUsesTwoStepTrendAndPeak(t *testing.T) {
	s, err := Classify(series(0.2, 0.9, 0.7, 0.62, 0.68))
	require.NoError(t, err)
	// 0.68 - 0.7: flat enough for peak.
	assert.Equal(t, CodePeak, s.Code)
	assert.InDelta(t, -0.02, s.Trend, 1e-9)
	assert.Equal(t, 0.9, s.Peak)
	assert.Equal(t, 0.68, s.Current)
	assert.Equal(t, 70.0, s.Confidence)
	assert.Len(t, s.Values, 5)
}

func TestClassifyConfidenceCapped(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = 0.1
	}
	s, err := Classify(series(vals...))
	require.NoError(t, err)
	assert.Equal(t, 95.0, s.Confidence)
}

func TestClassifyRejectsUnorderedSeries(t *testing.T) {
	pts := series(0.3, 0.4, 0.5)
	pts[1].Date, pts[2].Date = pts[2].Date, pts[1].Date
	_, err := Classify(pts)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)
}
