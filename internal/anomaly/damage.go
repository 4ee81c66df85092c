package anomaly

import (
	"fmt"

	"cropsight/internal/indices"
	"cropsight/internal/weather"
)

// Damage indicator categories.
const (
	DamageVegetation = "vegetation_decline"
	DamageWater      = "water_stress"
	DamageNutrient   = "nutrient_deficiency"
	DamageSoil       = "soil_exposure"
	DamageHeat       = "heat_damage"
	DamageDrought    = "drought_impact"
)

type DamageIndicator struct {
	Type        string  `json:"type" bson:"type"`
	Severity    string  `json:"severity" bson:"severity"`
	Indicator   string  `json:"indicator" bson:"indicator"`
	Value       float64 `json:"value" bson:"value"`
	Description string  `json:"description" bson:"description"`
}

type DamageResult struct {
	Score           float64           `json:"damage_score" bson:"damage_score"`
	Status          string            `json:"status" bson:"status"`
	Indicators      []DamageIndicator `json:"indicators" bson:"indicators"`
	Recommendations []string          `json:"recommendations" bson:"recommendations"`
}

// tier is a threshold check with a moderate and a severe level.
type tier struct {
	kind     string
	index    indices.Name
	def      float64
	below    bool
	moderate float64
	severe   float64
	modScore float64
	sevScore float64
	describe string
}

var damageTiers = []tier{
	{DamageVegetation, indices.NDVI, 0.5, true, 0.3, 0.2, 15, 30, "Low vegetation vigor detected (NDVI: %.2f)"},
	{DamageWater, indices.LSWI, 0.2, true, 0, -0.2, 12, 25, "Water stress detected (LSWI: %.2f)"},
	{DamageNutrient, indices.NDRE, 0.3, true, 0.2, 0.1, 10, 20, "Chlorophyll deficiency detected (NDRE: %.2f)"},
	{DamageSoil, indices.BSI, 0, false, 0.1, 0.2, 12, 25, "High bare soil detected (BSI: %.2f)"},
}

// Weather rules.
const (
	HeatWindowDays    = 7
	HeatLimitC        = 40
	DroughtWindowDays = 14
	DroughtLimitMM    = 5
	// Unreported days count as this temperature and as dry.
	missingTemperatureC = 25
)

// DetectCropDamage checks mean indices against damage thresholds and, when
// weather history is given, recent heat and rainfall. Undefined indices take
// the same defaults as the health model. history must be in date order.
func DetectCropDamage(mean indices.Set, history []weather.Day, crop string) (DamageResult, error) {
	if err := weather.CheckChronological(history); err != nil {
		return DamageResult{}, fmt.Errorf("%w: %v", indices.ErrInvalidInput, err)
	}
	var score float64
	found := []DamageIndicator{}

	for _, t := range damageTiers {
		v := mean.Or(t.index, t.def)
		hit, severe := v > t.moderate, v > t.severe
		if t.below {
			hit, severe = v < t.moderate, v < t.severe
		}
		if !hit {
			continue
		}
		ind := DamageIndicator{Type: t.kind, Severity: "moderate", Indicator: string(t.index), Value: v, Description: fmt.Sprintf(t.describe, v)}
		inc := t.modScore
		if severe {
			ind.Severity = "severe"
			inc = t.sevScore
		}
		found = append(found, ind)
		score += inc
	}

	if len(history) > 0 {
		if hot, ok := weather.Max(weather.Last(history, HeatWindowDays), weather.Temperature, missingTemperatureC); ok && hot > HeatLimitC {
			found = append(found, DamageIndicator{
				Type: DamageHeat, Severity: "moderate", Indicator: "temperature", Value: hot,
				Description: fmt.Sprintf("Heat wave impact (max temp: %.1f°C)", hot),
			})
			score += 15
		}
		rain := weather.Sum(weather.Last(history, DroughtWindowDays), weather.Precipitation, 0)
		if rain < DroughtLimitMM {
			found = append(found, DamageIndicator{
				Type: DamageDrought, Severity: "moderate", Indicator: "precipitation", Value: rain,
				Description: fmt.Sprintf("Low rainfall in past %d days (%.1fmm)", DroughtWindowDays, rain),
			})
			score += 15
		}
	}

	return DamageResult{
		Score:           min(100, score),
		Status:          damageStatus(score),
		Indicators:      found,
		Recommendations: damageRecommendations(found, crop),
	}, nil
}

func damageStatus(score float64) string {
	switch {
	case score >= 60:
		return "critical"
	case score >= 40:
		return "high"
	case score >= 20:
		return "moderate"
	default:
		return "low"
	}
}

func damageRecommendations(found []DamageIndicator, crop string) []string {
	kinds := make(map[string]bool, len(found))
	for _, f := range found {
		kinds[f.Type] = true
	}
	var out []string
	if kinds[DamageWater] || kinds[DamageDrought] {
		out = append(out, "Increase irrigation immediately", "Consider mulching to retain soil moisture")
	}
	if kinds[DamageNutrient] {
		out = append(out, "Apply foliar fertilizer spray", "Test soil for nutrient levels")
	}
	if kinds[DamageHeat] {
		out = append(out, "Provide temporary shade if possible", "Increase irrigation frequency during hot periods")
	}
	if kinds[DamageVegetation] {
		out = append(out, "Conduct field inspection for pest/disease", "Consider contacting agricultural extension officer")
	}
	if kinds[DamageSoil] {
		out = append(out, "Check for pest damage or germination failure", "Consider replanting affected areas")
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("Continue monitoring %s health regularly", crop))
	}
	return out
}
