// Package stress grades five independent stress categories from mean index
// values and optional weather.
package stress

import (
	"math"

	"cropsight/internal/indices"
)

type Status string

const (
	Normal   Status = "normal"
	Moderate Status = "moderate"
	High     Status = "high"
	Critical Status = "critical"
)

// Ladder holds the lower bounds of the moderate, high and critical statuses.
type Ladder struct {
	Moderate float64 `json:"moderate"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

var DefaultLadder = Ladder{Moderate: 25, High: 50, Critical: 75}

// Classify buckets a 0-100 level.
func (l Ladder) Classify(level float64) Status {
	switch {
	case level < l.Moderate:
		return Normal
	case level < l.High:
		return Moderate
	case level < l.Critical:
		return High
	default:
		return Critical
	}
}

// Weather is the optional weather context of an assessment.
type Weather struct {
	TemperatureC float64 `json:"temperature"`
}

// Level is one graded stress category.
type Level struct {
	Level     float64 `json:"level" bson:"level"`
	Status    Status  `json:"status" bson:"status"`
	Indicator string  `json:"indicator" bson:"indicator"`
	Value     float64 `json:"value" bson:"value"`
}

type Assessment struct {
	Water      Level `json:"water" bson:"water"`
	Nutrient   Level `json:"nutrient" bson:"nutrient"`
	Heat       Level `json:"heat" bson:"heat"`
	Vegetation Level `json:"vegetation" bson:"vegetation"`
	Soil       Level `json:"soil" bson:"soil"`
}

// Defaults substitute for undefined indices.
type Defaults struct {
	LSWI float64 `json:"lswi"`
	NDRE float64 `json:"ndre"`
	NDVI float64 `json:"ndvi"`
	BSI  float64 `json:"bsi"`
}

// Linear describes level = (Pivot - x) / Span * 100 for "below" indicators, or
// (x - Pivot) / Span * 100 for "above" indicators.
type Linear struct {
	Pivot float64 `json:"pivot"`
	Span  float64 `json:"span"`
}

func (l Linear) below(x float64) float64 { return clamp((l.Pivot - x) / l.Span * 100) }
func (l Linear) above(x float64) float64 { return clamp((x - l.Pivot) / l.Span * 100) }

type Model struct {
	Defaults   Defaults `json:"defaults"`
	Water      Linear   `json:"water"`
	Nutrient   Linear   `json:"nutrient"`
	Heat       Linear   `json:"heat"`
	Vegetation Linear   `json:"vegetation"`
	Soil       Linear   `json:"soil"`
	// NegativeWaterGain amplifies stress once LSWI drops below zero.
	NegativeWaterGain float64 `json:"negative_water_gain"`
	Ladder            Ladder  `json:"ladder"`
}

func DefaultModel() Model {
	return Model{
		Defaults:          Defaults{LSWI: 0.2, NDRE: 0.3, NDVI: 0.5, BSI: 0},
		Water:             Linear{Pivot: 0.3, Span: 0.6},
		Nutrient:          Linear{Pivot: 0.4, Span: 0.8},
		Heat:              Linear{Pivot: 25, Span: 20},
		Vegetation:        Linear{Pivot: 0.5, Span: 1.0},
		Soil:              Linear{Pivot: 0.1, Span: 0.3},
		NegativeWaterGain: 200,
		Ladder:            DefaultLadder,
	}
}

// Detect grades each category independently. Without weather the heat level
// is zero.
func (m Model) Detect(mean indices.Set, w *Weather) Assessment {
	d := m.Defaults
	lswi := mean.Or(indices.LSWI, d.LSWI)
	ndre := mean.Or(indices.NDRE, d.NDRE)
	ndvi := mean.Or(indices.NDVI, d.NDVI)
	bsi := mean.Or(indices.BSI, d.BSI)

	water := m.Water.below(lswi)
	if lswi < 0 {
		water = math.Max(water, clamp(-lswi*m.NegativeWaterGain))
	}

	var heat, temp float64
	if w != nil {
		temp = w.TemperatureC
		if temp > m.Heat.Pivot {
			heat = m.Heat.above(temp)
		}
	}

	return Assessment{
		Water:      m.level(water, "LSWI", lswi),
		Nutrient:   m.level(m.Nutrient.below(ndre), "NDRE", ndre),
		Heat:       m.level(heat, "temperature", temp),
		Vegetation: m.level(m.Vegetation.below(ndvi), "NDVI", ndvi),
		Soil:       m.level(m.Soil.above(bsi), "BSI", bsi),
	}
}

func (m Model) level(v float64, indicator string, raw float64) Level {
	return Level{Level: v, Status: m.Ladder.Classify(v), Indicator: indicator, Value: raw}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
