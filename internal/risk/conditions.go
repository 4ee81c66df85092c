package risk

import "math"

// Conditions are the field observations risk levels are derived from.
// Weather fields left nil were not observed and contribute no risk.
type Conditions struct {
	WaterStress    float64  `json:"water_stress"`    // 0-100
	NutrientStress float64  `json:"nutrient_stress"` // 0-100
	NDWI           float64  `json:"ndwi"`
	Precip14MM     *float64 `json:"precipitation_14d_mm,omitempty"`
	MeanTempC      *float64 `json:"mean_temperature_c,omitempty"`
	MinTempC       *float64 `json:"min_temperature_c,omitempty"`
	MaxTempC       *float64 `json:"max_temperature_c,omitempty"`
	HumidityPct    *float64 `json:"humidity_percent,omitempty"`
}

// FactorsFromConditions derives the six factor levels deterministically.
func FactorsFromConditions(c Conditions) map[Factor]float64 {
	out := make(map[Factor]float64, len(Factors))
	for _, f := range Factors {
		out[f] = 0
	}

	var deficit, surplus float64
	if c.Precip14MM != nil {
		deficit = pct((30 - *c.Precip14MM) / 30)
		surplus = pct((*c.Precip14MM - 100) / 100)
	}
	out[Drought] = clamp(0.6*c.WaterStress + 0.4*deficit)
	out[Flood] = clamp(0.7*surplus + 0.3*pct(c.NDWI*2))

	if c.MeanTempC != nil && c.HumidityPct != nil {
		out[Pest] = pct((*c.MeanTempC-20)/15) * unit(*c.HumidityPct/80)
	}
	disease := 0.3 * clamp(c.NutrientStress)
	if c.HumidityPct != nil {
		disease += 0.7 * pct((*c.HumidityPct-60)/30)
	}
	out[Disease] = clamp(disease)

	if c.MinTempC != nil {
		out[Frost] = pct((4 - *c.MinTempC) / 8)
	}
	if c.MaxTempC != nil {
		out[Heatwave] = pct((*c.MaxTempC - 32) / 10)
	}
	return out
}

// pct maps a fraction onto [0,100].
func pct(frac float64) float64 { return clamp(frac * 100) }

func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
