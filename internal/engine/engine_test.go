package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"cropsight/internal/indices"
	"cropsight/internal/phenology"
	"cropsight/internal/risk"
	"cropsight/internal/weather"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var day0 = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func bands(nir float64) indices.BandSet {
	return indices.BandSet{
		Blue: 0.04, Green: 0.08, Red: 0.05,
		RedEdge1: 0.15, RedEdge2: 0.25, RedEdge3: 0.3,
		NIR: nir, NIRNarrow: nir, SWIR1: 0.2, SWIR2: 0.1,
	}
}

func growingSeason() []indices.Observation {
	nirs := []float64{0.2, 0.25, 0.3, 0.35, 0.4, 0.42}
	obs := make([]indices.Observation, len(nirs))
	for i, n := range nirs {
		obs[i] = indices.Observation{Date: day0.AddDate(0, 0, 10*i), Bands: bands(n)}
	}
	return obs
}

func warmDryFortnight() []weather.Day {
	days := make([]weather.Day, 14)
	for i := range days {
		days[i] = weather.Day{
			Date:            day0.AddDate(0, 0, i),
			TemperatureC:    weather.Float(30),
			PrecipitationMM: weather.Float(0),
			HumidityPct:     weather.Float(50),
		}
	}
	return days
}

func TestAnalyzeObservations(t *testing.T) {
	obs := growingSeason()
	// Reverse to check the engine orders by date.
	for i, j := 0, len(obs)-1; i < j; i, j = i+1, j-1 {
		obs[i], obs[j] = obs[j], obs[i]
	}

	rep, err := New(nil).Analyze(Input{Crop: "Maize", AreaHa: 4, DaysSinceSowing: 70, Observations: obs, Weather: warmDryFortnight()})
	require.NoError(t, err)

	assert.Equal(t, "maize", rep.Crop)
	assert.Equal(t, 6, rep.ImageCount)
	require.Len(t, rep.TimeSeries, 6)
	assert.True(t, rep.TimeSeries[0].Date.Equal(day0))

	ndvi := rep.Statistics[indices.NDVI]
	assert.Equal(t, 6, ndvi.Count)
	assert.InDelta(t, (0.42-0.05)/(0.42+0.05), ndvi.Max, 1e-12)
	require.Len(t, rep.NDVIHistogram, NDVIBuckets)
	total := 0
	for _, b := range rep.NDVIHistogram {
		total += b.Count
	}
	assert.Equal(t, 6, total)

	assert.Equal(t, phenology.CodeActiveGrowth, rep.Stage.Code)
	require.NotNil(t, rep.Anomaly)
	assert.False(t, rep.Anomaly.IsAnomaly)
	assert.Empty(t, rep.Changes)

	assert.InDelta(t, 25, rep.Stress.Heat.Level, 1e-9)
	assert.Equal(t, rep.Yield.Crop, rep.Carbon.Crop)
	assert.Equal(t, 1.0, rep.Carbon.GrowthFactor)

	var drought bool
	for _, d := range rep.Damage.Indicators {
		drought = drought || d.Type == "drought_impact"
	}
	assert.True(t, drought)
	assert.Len(t, rep.Risk.Factors, len(risk.Factors))
	assert.NotEmpty(t, rep.Recommendations)
}

func TestAnalyzeMeanIndicesOnly(t *testing.T) {
	mean := indices.Set{indices.NDVI: 0.7, indices.EVI: 0.5, indices.LAI: 3}
	rep, err := New(nil).Analyze(Input{Crop: "teff", AreaHa: 1, MeanIndices: mean})
	require.NoError(t, err)

	assert.Equal(t, "wheat", rep.Crop)
	assert.False(t, rep.Yield.KnownCrop)
	assert.Equal(t, 0, rep.ImageCount)
	assert.Nil(t, rep.Anomaly)
	assert.Equal(t, "Unknown", rep.Stage.Name)
	assert.InDelta(t, 84, rep.Yield.Confidence, 1e-9)

	// The report owns its copy of the indices.
	mean[indices.NDVI] = 0
	assert.Equal(t, 0.7, rep.Indices[indices.NDVI])
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	_, err := New(nil).Analyze(Input{Crop: "rice"})
	assert.ErrorIs(t, err, indices.ErrInvalidInput)

	bad := growingSeason()
	bad[2].Bands.Red = 2
	_, err = New(nil).Analyze(Input{Observations: bad})
	assert.ErrorIs(t, err, indices.ErrInvalidInput)
}

func TestAnalyzeMeanIndexNames(t *testing.T) {
	rep, err := New(nil).Analyze(Input{Crop: "rice", MeanIndices: indices.Set{"ndvi": 0.05, "Lai": 0.4}})
	require.NoError(t, err)
	assert.Equal(t, indices.Set{indices.NDVI: 0.05, indices.LAI: 0.4}, rep.Indices)
	assert.Equal(t, "severe", rep.Damage.Indicators[0].Severity)

	for _, mean := range []indices.Set{
		{"NDVI": 0.6, "bogus": 1},
		{"NDVI": 0.6, "ndvi": 0.5},
	} {
		_, err := New(nil).Analyze(Input{Crop: "rice", MeanIndices: mean})
		assert.ErrorIs(t, err, indices.ErrInvalidInput, "%v", mean)
	}
}

func TestAnalyzeWeatherOrderDoesNotMatter(t *testing.T) {
	base := make([]weather.Day, 20)
	for i := range base {
		base[i] = weather.Day{Date: day0.AddDate(0, 0, i), TemperatureC: weather.Float(30), PrecipitationMM: weather.Float(2)}
	}
	base[19].TemperatureC = weather.Float(44)
	reversed := make([]weather.Day, len(base))
	for i, d := range base {
		reversed[len(base)-1-i] = d
	}

	a, err := New(nil).Analyze(Input{Crop: "wheat", Observations: growingSeason(), Weather: base})
	require.NoError(t, err)
	b, err := New(nil).Analyze(Input{Crop: "wheat", Observations: growingSeason(), Weather: reversed})
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("reports differ (-sorted +reversed):\n%s", diff)
	}
	var heat bool
	for _, d := range b.Damage.Indicators {
		heat = heat || d.Type == "heat_damage"
	}
	assert.True(t, heat)
	// The caller's slice is left as given.
	assert.True(t, reversed[0].Date.Equal(day0.AddDate(0, 0, 19)))
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	in := Input{Crop: "rice", AreaHa: 2, DaysSinceSowing: 40, Observations: growingSeason(), Weather: warmDryFortnight()}
	a, err := New(nil).Analyze(in)
	require.NoError(t, err)
	b, err := New(nil).Analyze(in)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("reports differ (-first +second):\n%s", diff)
	}
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	cropsIn := []string{"wheat", "rice", "maize", "cotton", "potato", "soybean", "mustard", "sugarcane"}
	inputs := make([]Input, len(cropsIn))
	for i, c := range cropsIn {
		inputs[i] = Input{Crop: c, AreaHa: float64(i + 1), Observations: growingSeason()}
	}

	reps, err := New(nil).AnalyzeBatch(context.Background(), inputs, 3)
	require.NoError(t, err)
	require.Len(t, reps, len(inputs))
	for i, r := range reps {
		assert.Equal(t, cropsIn[i], r.Crop)
	}
}

func TestAnalyzeBatchFailsFast(t *testing.T) {
	inputs := []Input{{Crop: "wheat", Observations: growingSeason()}, {Crop: "rice"}}
	_, err := New(nil).AnalyzeBatch(context.Background(), inputs, 0)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(nil).AnalyzeBatch(ctx, []Input{{Crop: "wheat", Observations: growingSeason()}}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheKey(t *testing.T) {
	start, end := day0, day0.AddDate(0, 1, 0)
	names := []indices.Name{indices.NDVI, indices.EVI}

	a, err := CacheKey([]byte(`{"type":"Polygon","coordinates":[[[1,2],[3,4],[1,2]]]}`), start, end, "Wheat", names)
	require.NoError(t, err)
	b, err := CacheKey([]byte("{\n  \"coordinates\": [[[1,2],[3,4],[1,2]]],\n  \"type\": \"Polygon\"\n}"), start, end, " wheat", []indices.Name{indices.EVI, indices.NDVI})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := CacheKey([]byte(`{"type":"Polygon","coordinates":[[[1,2],[3,4],[1,2]]]}`), start, end.AddDate(0, 0, 1), "wheat", names)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = CacheKey([]byte("{"), start, end, "wheat", names)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)
}
