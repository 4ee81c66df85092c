// Package yield estimates crop yield from a seasonal index summary using the
// per-crop linear model in the crop table.
package yield

import (
	"math"

	"cropsight/internal/crops"
)

const ModelID = "ndvi-evi-lai-regression"

// Estimate is a point yield with its uncertainty band, in t/ha.
type Estimate struct {
	Point      float64 `json:"estimated_yield" bson:"estimated_yield"`
	Min        float64 `json:"yield_min" bson:"yield_min"`
	Max        float64 `json:"yield_max" bson:"yield_max"`
	Confidence float64 `json:"confidence" bson:"confidence"`
	Crop       string  `json:"crop_type" bson:"crop_type"`
	// KnownCrop is false when the requested crop fell back to the default.
	KnownCrop bool   `json:"known_crop" bson:"known_crop"`
	Model     string `json:"model" bson:"model"`
	Unit      string `json:"unit" bson:"unit"`
}

type Estimator struct {
	table *crops.Table
	// Confidence bounds, in percent.
	MinConfidence float64
	MaxConfidence float64
	// ConfidenceGain scales peak NDVI into a confidence percentage.
	ConfidenceGain float64
}

// NewEstimator returns an estimator over table, or over the built-in table
// when table is nil.
func NewEstimator(table *crops.Table) Estimator {
	if table == nil {
		table = crops.Default()
	}
	return Estimator{table: table, MinConfidence: 50, MaxConfidence: 95, ConfidenceGain: 120}
}

// withDefaults fills the zero fields of an Estimator not built by
// NewEstimator.
func (e Estimator) withDefaults() Estimator {
	if e.table != nil {
		return e
	}
	d := NewEstimator(nil)
	e.table = d.table
	if e.MinConfidence == 0 {
		e.MinConfidence = d.MinConfidence
	}
	if e.MaxConfidence == 0 {
		e.MaxConfidence = d.MaxConfidence
	}
	if e.ConfidenceGain == 0 {
		e.ConfidenceGain = d.ConfidenceGain
	}
	return e
}

// Estimate resolves crop case-insensitively and applies its model.
// Non-finite inputs contribute nothing. The zero Estimator uses the built-in
// table and default confidence bounds.
func (e Estimator) Estimate(crop string, ndviMax, eviMean, laiMean float64) Estimate {
	e = e.withDefaults()
	p, known := e.table.Lookup(crop)
	y := p.Yield

	ndviMax, eviMean, laiMean = finite(ndviMax), finite(eviMean), finite(laiMean)
	point := y.Base + y.NDVI*ndviMax + y.EVI*eviMean + y.LAI*laiMean
	point = math.Max(y.Base, math.Min(y.Max, point))

	conf := math.Max(e.MinConfidence, math.Min(e.MaxConfidence, ndviMax*e.ConfidenceGain))
	spread := point * (1 - conf/100) * 0.5

	return Estimate{
		Point:      point,
		Min:        point - spread,
		Max:        point + spread,
		Confidence: conf,
		Crop:       p.Name,
		KnownCrop:  known,
		Model:      ModelID,
		Unit:       "t/ha",
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
