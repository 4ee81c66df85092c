// Package health turns mean index values into a weighted composite health
// score on a 0-100 scale.
package health

import (
	"fmt"
	"math"

	"cropsight/internal/indices"
)

type Status string

const (
	Excellent Status = "Excellent"
	Good      Status = "Good"
	Fair      Status = "Fair"
	Poor      Status = "Poor"
	Critical  Status = "Critical"
)

// Weights of each component in the overall score. They must sum to 1.
type Weights struct {
	Greenness float64 `json:"greenness"`
	Vigor     float64 `json:"vigor"`
	Nutrient  float64 `json:"nutrient"`
	Water     float64 `json:"water"`
	Canopy    float64 `json:"canopy"`
}

func (w Weights) sum() float64 {
	return w.Greenness + w.Vigor + w.Nutrient + w.Water + w.Canopy
}

// Thresholds are the lower bounds of each status; anything below Poor is Critical.
type Thresholds struct {
	Excellent float64 `json:"excellent"`
	Good      float64 `json:"good"`
	Fair      float64 `json:"fair"`
	Poor      float64 `json:"poor"`
}

// Defaults substitute for undefined indices.
type Defaults struct {
	NDVI float64 `json:"ndvi"`
	EVI  float64 `json:"evi"`
	NDRE float64 `json:"ndre"`
	LSWI float64 `json:"lswi"`
	LAI  float64 `json:"lai"`
}

// Model is a parameterized health scorer. The zero Model is not usable; start
// from DefaultModel.
type Model struct {
	Weights    Weights    `json:"weights"`
	Thresholds Thresholds `json:"thresholds"`
	Defaults   Defaults   `json:"defaults"`
	// MaxLAI maps to a canopy score of 100.
	MaxLAI float64 `json:"max_lai"`
}

func DefaultModel() Model {
	return Model{
		Weights:    Weights{Greenness: 0.30, Vigor: 0.25, Nutrient: 0.20, Water: 0.15, Canopy: 0.10},
		Thresholds: Thresholds{Excellent: 80, Good: 65, Fair: 50, Poor: 35},
		Defaults:   Defaults{NDVI: 0.5, EVI: 0.4, NDRE: 0.3, LSWI: 0.2, LAI: 3.0},
		MaxLAI:     6,
	}
}

// Validate checks that weights are non-negative and sum to 1, and that the
// status thresholds descend.
func (m Model) Validate() error {
	w := m.Weights
	for _, v := range []float64{w.Greenness, w.Vigor, w.Nutrient, w.Water, w.Canopy} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative health weight", indices.ErrInvalidInput)
		}
	}
	if math.Abs(w.sum()-1) > 1e-9 {
		return fmt.Errorf("%w: health weights sum to %v, want 1", indices.ErrInvalidInput, w.sum())
	}
	t := m.Thresholds
	if !(t.Excellent > t.Good && t.Good > t.Fair && t.Fair > t.Poor) {
		return fmt.Errorf("%w: health thresholds must descend", indices.ErrInvalidInput)
	}
	if !(m.MaxLAI > 0) {
		return fmt.Errorf("%w: max LAI must be positive", indices.ErrInvalidInput)
	}
	return nil
}

type Components struct {
	Greenness float64 `json:"greenness" bson:"greenness"`
	Vigor     float64 `json:"vigor" bson:"vigor"`
	Nutrient  float64 `json:"nutrient" bson:"nutrient"`
	Water     float64 `json:"water" bson:"water"`
	Canopy    float64 `json:"canopy" bson:"canopy"`
}

type Score struct {
	Overall    float64    `json:"overall" bson:"overall"`
	Components Components `json:"components" bson:"components"`
	Status     Status     `json:"status" bson:"status"`
}

// Score rates a mean index set. Undefined indices take the model defaults.
func (m Model) Score(mean indices.Set) Score {
	d := m.Defaults
	c := Components{
		Greenness: unit(mean.Or(indices.NDVI, d.NDVI)),
		Vigor:     unit(mean.Or(indices.EVI, d.EVI)),
		Nutrient:  unit(mean.Or(indices.NDRE, d.NDRE)),
		Water:     unit(mean.Or(indices.LSWI, d.LSWI)),
		Canopy:    clamp(mean.Or(indices.LAI, d.LAI) / m.MaxLAI * 100),
	}
	w := m.Weights
	overall := c.Greenness*w.Greenness +
		c.Vigor*w.Vigor +
		c.Nutrient*w.Nutrient +
		c.Water*w.Water +
		c.Canopy*w.Canopy
	overall = clamp(overall)
	return Score{Overall: overall, Components: c, Status: m.status(overall)}
}

func (m Model) status(v float64) Status {
	t := m.Thresholds
	switch {
	case v >= t.Excellent:
		return Excellent
	case v >= t.Good:
		return Good
	case v >= t.Fair:
		return Fair
	case v >= t.Poor:
		return Poor
	default:
		return Critical
	}
}

// unit maps a normalized difference in [-1,1] onto [0,100].
func unit(v float64) float64 { return clamp((v + 1) / 2 * 100) }

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
