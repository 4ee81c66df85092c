package anomaly

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"

	"cropsight/internal/indices"
)

const DefaultSpatialThreshold = 0.2

type SpatialPattern struct {
	Type                   string  `json:"type" bson:"type"`
	Description            string  `json:"description" bson:"description"`
	AffectedPercent        float64 `json:"affected_percent,omitempty" bson:"affected_percent,omitempty"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation,omitempty" bson:"coefficient_of_variation,omitempty"`
}

type SpatialResult struct {
	Uniformity             float64          `json:"uniformity_score" bson:"uniformity_score"`
	Mean                   float64          `json:"mean_value" bson:"mean_value"`
	CoefficientOfVariation float64          `json:"coefficient_of_variation" bson:"coefficient_of_variation"`
	Patterns               []SpatialPattern `json:"patterns" bson:"patterns"`
	Recommendation         string           `json:"recommendation,omitempty" bson:"recommendation,omitempty"`
}

// AnalyzeSpatial rates how uniform a grid of pixel values is and flags
// low-value clusters. An empty grid has zero uniformity.
func AnalyzeSpatial(grid [][]float64, threshold float64) (SpatialResult, error) {
	var px []float64
	for _, row := range grid {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return SpatialResult{}, fmt.Errorf("%w: pixel value is not finite", indices.ErrInvalidInput)
			}
			px = append(px, v)
		}
	}
	if len(px) == 0 {
		return SpatialResult{Patterns: []SpatialPattern{}}, nil
	}

	data := mstats.Float64Data(px)
	mean, _ := data.Mean()
	std, _ := data.StandardDeviationPopulation()
	var cv float64
	if mean > 0 {
		cv = std / mean * 100
	}
	res := SpatialResult{
		Uniformity:             math.Max(0, 100-cv),
		Mean:                   mean,
		CoefficientOfVariation: cv,
		Patterns:               []SpatialPattern{},
	}

	low := 0
	for _, v := range px {
		if v < mean-threshold {
			low++
		}
	}
	if float64(low) > float64(len(px))*0.2 {
		res.Patterns = append(res.Patterns, SpatialPattern{
			Type:            "clustered_low_values",
			Description:     "Areas with significantly lower vegetation health detected",
			AffectedPercent: float64(low) / float64(len(px)) * 100,
		})
	}
	if cv > 30 {
		res.Patterns = append(res.Patterns, SpatialPattern{
			Type:                   "high_variability",
			Description:            "Uneven crop growth across field",
			CoefficientOfVariation: cv,
		})
	}

	res.Recommendation = "Consider zone-specific management"
	if res.Uniformity > 80 {
		res.Recommendation = "Field is uniform"
	}
	return res, nil
}
