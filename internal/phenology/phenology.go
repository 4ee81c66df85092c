// Package phenology classifies the growth stage of a crop from its NDVI
// time series.
package phenology

import (
	"fmt"
	"math"
	"time"

	"cropsight/internal/indices"
)

// MinPoints is the shortest series that can be classified.
const MinPoints = 3

type Direction string

const (
	Increasing Direction = "Increasing"
	Decreasing Direction = "Decreasing"
	Stable     Direction = "Stable"
)

// Stage codes. Unknown is -1.
const (
	CodeUnknown = iota - 1
	CodeBareSoil
	CodeEmergence
	CodeVegetative
	CodeActiveGrowth
	CodePeak
	CodeMaturation
	CodeSenescence
	CodeHarvestReady
)

var stageNames = map[int]string{
	CodeUnknown:      "Unknown",
	CodeBareSoil:     "Bare Soil / Fallow",
	CodeEmergence:    "Emergence",
	CodeVegetative:   "Vegetative Growth",
	CodeActiveGrowth: "Active Growth",
	CodePeak:         "Peak / Flowering",
	CodeMaturation:   "Grain Filling / Maturation",
	CodeSenescence:   "Senescence",
	CodeHarvestReady: "Harvest Ready",
}

type Point struct {
	Date time.Time `json:"date"`
	NDVI float64   `json:"ndvi"`
}

type Stage struct {
	Name       string    `json:"stage" bson:"stage"`
	Code       int       `json:"stage_code" bson:"stage_code"`
	Confidence float64   `json:"confidence" bson:"confidence"`
	Current    float64   `json:"current_ndvi" bson:"current_ndvi"`
	Peak       float64   `json:"max_ndvi" bson:"max_ndvi"`
	Trend      float64   `json:"trend" bson:"trend"`
	Direction  Direction `json:"trend_direction" bson:"trend_direction"`
	Values     []float64 `json:"ndvi_values" bson:"ndvi_values"`
}

// Classify walks the stage ladder on the latest NDVI and its change over the
// last two steps. Fewer than MinPoints points give an Unknown stage with zero
// confidence; points out of date order are rejected.
func Classify(points []Point) (Stage, error) {
	values := make([]float64, len(points))
	for i, p := range points {
		if math.IsNaN(p.NDVI) || math.IsInf(p.NDVI, 0) {
			return Stage{}, fmt.Errorf("%w: NDVI at %s is not finite", indices.ErrInvalidInput, p.Date.Format(time.DateOnly))
		}
		if i > 0 && p.Date.Before(points[i-1].Date) {
			return Stage{}, fmt.Errorf("%w: series not in date order at %s", indices.ErrInvalidInput, p.Date.Format(time.DateOnly))
		}
		values[i] = p.NDVI
	}

	n := len(values)
	if n < MinPoints {
		return Stage{Name: stageNames[CodeUnknown], Code: CodeUnknown, Direction: Stable, Values: values}, nil
	}

	cur := values[n-1]
	trend := cur - values[n-3]
	peak := values[0]
	for _, v := range values[1:] {
		peak = math.Max(peak, v)
	}

	code := ladder(cur, trend)
	conf := 0.0
	if code != CodeUnknown {
		conf = math.Min(95, 60+5*float64(n-MinPoints))
	}
	return Stage{
		Name:       stageNames[code],
		Code:       code,
		Confidence: conf,
		Current:    cur,
		Peak:       peak,
		Trend:      trend,
		Direction:  direction(trend),
		Values:     values,
	}, nil
}

func ladder(cur, trend float64) int {
	switch {
	case cur < 0.2:
		return CodeBareSoil
	case cur < 0.3 && trend > 0:
		return CodeEmergence
	case cur < 0.5 && trend > 0:
		return CodeVegetative
	case cur >= 0.5 && trend > 0:
		return CodeActiveGrowth
	case cur >= 0.6 && math.Abs(trend) < 0.05:
		return CodePeak
	case cur >= 0.4 && trend < 0:
		return CodeMaturation
	case cur < 0.4 && trend < 0:
		return CodeSenescence
	case cur < 0.25:
		return CodeHarvestReady
	default:
		return CodeUnknown
	}
}

func direction(trend float64) Direction {
	switch {
	case trend > 0.02:
		return Increasing
	case trend < -0.02:
		return Decreasing
	default:
		return Stable
	}
}
