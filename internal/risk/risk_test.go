package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsight/internal/indices"
	"cropsight/internal/stress"
)

func uniform(v float64) map[Factor]float64 {
	out := make(map[Factor]float64, len(Factors))
	for _, f := range Factors {
		out[f] = v
	}
	return out
}

func TestWeightsSumToOne(t *testing.T) {
	total := 0
	for _, f := range Factors {
		total += Weights[f]
	}
	assert.Equal(t, 100, total)
	assert.Len(t, Weights, len(Factors))
}

func TestAggregateUniformLevels(t *testing.T) {
	for _, v := range []float64{0, 10, 50, 100} {
		a, err := Aggregate(uniform(v))
		require.NoError(t, err)
		assert.Equal(t, v, a.Overall)
	}
}

func TestAggregateAlerts(t *testing.T) {
	levels := uniform(10)
	levels[Drought] = 80
	levels[Pest] = 60
	levels[Frost] = 30

	a, err := Aggregate(levels)
	require.NoError(t, err)
	// (80*25 + 10*15 + 60*20 + 10*20 + 30*10 + 10*10) / 100
	assert.InDelta(t, 39.5, a.Overall, 1e-12)
	assert.Equal(t, stress.Moderate, a.Status)
	assert.Equal(t, stress.Critical, a.Factors[Drought].Status)
	assert.Equal(t, stress.Moderate, a.Factors[Frost].Status)
	assert.Equal(t, "Based on soil moisture and rainfall patterns", a.Factors[Flood].Description)
	assert.Equal(t, "Heatwave", a.Factors[Heatwave].Name)

	require.Len(t, a.Alerts, 2)
	assert.Equal(t, Alert{
		Factor:   Drought,
		Severity: "critical",
		Message:  "Drought risk is critical. Based on LSWI and precipitation deficit analysis",
	}, a.Alerts[0])
	assert.Equal(t, Pest, a.Alerts[1].Factor)
	assert.Equal(t, "warning", a.Alerts[1].Severity)
	assert.Equal(t, "Pest risk is high. Based on temperature and humidity conditions favoring pest activity", a.Alerts[1].Message)
}

func TestAggregateRejectsBadFactors(t *testing.T) {
	missing := uniform(20)
	delete(missing, Frost)
	_, err := Aggregate(missing)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)

	out := uniform(20)
	out[Flood] = 101
	_, err = Aggregate(out)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)

	extra := uniform(20)
	extra["hail"] = 5
	_, err = Aggregate(extra)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)
}

func TestFactorsFromConditions(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	got := FactorsFromConditions(Conditions{
		WaterStress:    50,
		NutrientStress: 20,
		NDWI:           0.1,
		Precip14MM:     f(150),
		MeanTempC:      f(27.5),
		MinTempC:       f(0),
		MaxTempC:       f(37),
		HumidityPct:    f(75),
	})
	assert.InDelta(t, 30, got[Drought], 1e-9)      // 0.6*50 + 0.4*0
	assert.InDelta(t, 35+6, got[Flood], 1e-9)      // 0.7*50 + 0.3*20
	assert.InDelta(t, 50*75.0/80, got[Pest], 1e-9) // 50% temp, 0.9375 humidity
	assert.InDelta(t, 0.7*50+0.3*20, got[Disease], 1e-9)
	assert.InDelta(t, 50, got[Frost], 1e-9)
	assert.InDelta(t, 50, got[Heatwave], 1e-9)

	_, err := Aggregate(got)
	assert.NoError(t, err)
}

func TestFactorsFromConditionsWithoutWeather(t *testing.T) {
	got := FactorsFromConditions(Conditions{WaterStress: 100, NutrientStress: 100})
	assert.Len(t, got, len(Factors))
	assert.InDelta(t, 60, got[Drought], 1e-9)
	assert.Equal(t, 0.0, got[Flood])
	assert.Equal(t, 0.0, got[Pest])
	assert.InDelta(t, 30, got[Disease], 1e-9)
	assert.Equal(t, 0.0, got[Frost])
}
