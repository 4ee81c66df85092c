// Package carbon estimates carbon sequestration and its credit value from
// canopy condition and crop growth stage.
package carbon

import (
	"fmt"
	"math"

	"cropsight/internal/crops"
	"cropsight/internal/indices"
)

const (
	DefaultCO2Factor = 3.67 // tCO2 per tC
	DefaultPriceUSD  = 25.0 // per tCO2
	// AnnualFraction is the share of the peak rate assumed to hold over a year.
	AnnualFraction = 0.8
	peakLAI        = 4.0
)

type Input struct {
	NDVI            float64 `json:"ndvi"`
	LAI             float64 `json:"lai"`
	AreaHa          float64 `json:"area_ha"`
	Crop            string  `json:"crop_type"`
	DaysSinceSowing int     `json:"days_since_sowing"`
}

type Estimate struct {
	DailyRate      float64 `json:"current_rate_tc_ha_day" bson:"current_rate_tc_ha_day"`
	AnnualPerHa    float64 `json:"annual_estimate_tc_ha" bson:"annual_estimate_tc_ha"`
	TotalAnnual    float64 `json:"total_annual_tc" bson:"total_annual_tc"`
	CO2Equivalent  float64 `json:"co2_equivalent_t" bson:"co2_equivalent_t"`
	CreditValueUSD float64 `json:"potential_credit_value_usd" bson:"potential_credit_value_usd"`
	HealthFactor   float64 `json:"health_factor" bson:"health_factor"`
	CanopyFactor   float64 `json:"canopy_factor" bson:"canopy_factor"`
	GrowthFactor   float64 `json:"growth_factor" bson:"growth_factor"`
	Crop           string  `json:"crop_type" bson:"crop_type"`
	Methodology    string  `json:"methodology" bson:"methodology"`
}

type Estimator struct {
	table     *crops.Table
	CO2Factor float64
	PriceUSD  float64
}

// NewEstimator returns an estimator over table, or the built-in table when nil.
func NewEstimator(table *crops.Table) Estimator {
	if table == nil {
		table = crops.Default()
	}
	return Estimator{table: table, CO2Factor: DefaultCO2Factor, PriceUSD: DefaultPriceUSD}
}

func (e Estimator) withDefaults() Estimator {
	if e.table != nil {
		return e
	}
	d := NewEstimator(nil)
	e.table = d.table
	if e.CO2Factor == 0 {
		e.CO2Factor = d.CO2Factor
	}
	if e.PriceUSD == 0 {
		e.PriceUSD = d.PriceUSD
	}
	return e
}

// Estimate values one field. The zero Estimator uses the built-in table and
// default factors.
func (e Estimator) Estimate(in Input) (Estimate, error) {
	e = e.withDefaults()
	for name, v := range map[string]float64{"ndvi": in.NDVI, "lai": in.LAI, "area": in.AreaHa} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Estimate{}, fmt.Errorf("%w: %s is not finite", indices.ErrInvalidInput, name)
		}
	}
	if in.AreaHa < 0 {
		return Estimate{}, fmt.Errorf("%w: area %v ha is negative", indices.ErrInvalidInput, in.AreaHa)
	}
	if in.DaysSinceSowing < 0 {
		return Estimate{}, fmt.Errorf("%w: days since sowing %d is negative", indices.ErrInvalidInput, in.DaysSinceSowing)
	}

	p, _ := e.table.Lookup(in.Crop)
	base := p.CarbonRate

	health := (in.NDVI + 1) / 2
	canopy := math.Min(1, in.LAI/peakLAI)
	growth := GrowthFactor(in.DaysSinceSowing)

	annual := base * AnnualFraction
	total := annual * in.AreaHa
	co2 := total * e.CO2Factor
	return Estimate{
		DailyRate:      base * health * canopy * growth / 365,
		AnnualPerHa:    annual,
		TotalAnnual:    total,
		CO2Equivalent:  co2,
		CreditValueUSD: co2 * e.PriceUSD,
		HealthFactor:   health,
		CanopyFactor:   canopy,
		GrowthFactor:   growth,
		Crop:           p.Name,
		Methodology:    "Remote sensing based estimation using NDVI and LAI",
	}, nil
}

// GrowthFactor steps the sequestration rate through the season.
func GrowthFactor(days int) float64 {
	switch {
	case days < 30:
		return 0.3
	case days < 60:
		return 0.7
	case days < 90:
		return 1.0
	case days < 120:
		return 0.8
	default:
		return 0.5
	}
}
