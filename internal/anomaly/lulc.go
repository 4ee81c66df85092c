package anomaly

import (
	"fmt"
	"math"
	"sort"

	"cropsight/internal/indices"
)

const DefaultMinChangePercent = 5.0

// Land-cover classes the pattern rules look at.
const (
	ClassCropland = "cropland"
	ClassUrban    = "urban"
	ClassForest   = "forest"
)

// Named land-cover change patterns.
const (
	PatternAgriToUrban   = "agricultural_to_urban_conversion"
	PatternDeforestation = "deforestation_for_agriculture"
	PatternCroplandLoss  = "significant_cropland_loss"
)

type ClassChange struct {
	Class    string  `json:"class" bson:"class"`
	Previous float64 `json:"previous_percent" bson:"previous_percent"`
	Current  float64 `json:"current_percent" bson:"current_percent"`
	Change   float64 `json:"change" bson:"change"`
	Trend    string  `json:"trend" bson:"trend"`
}

type LULCResult struct {
	Changes     []ClassChange `json:"changes" bson:"changes"`
	Patterns    []string      `json:"patterns_detected" bson:"patterns_detected"`
	Significant bool          `json:"has_significant_change" bson:"has_significant_change"`
	Summary     string        `json:"analysis_summary" bson:"analysis_summary"`
}

// DetectLULCChange compares two class -> percent maps. A class missing from
// one side counts as 0%.
func DetectLULCChange(current, previous map[string]float64, minChange float64) (LULCResult, error) {
	if minChange < 0 || math.IsNaN(minChange) {
		return LULCResult{}, fmt.Errorf("%w: minimum change %v is negative", indices.ErrInvalidInput, minChange)
	}
	classes := make(map[string]struct{}, len(current)+len(previous))
	for _, m := range []map[string]float64{current, previous} {
		for k, v := range m {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return LULCResult{}, fmt.Errorf("%w: class %q percentage is not finite", indices.ErrInvalidInput, k)
			}
			classes[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(classes))
	for k := range classes {
		names = append(names, k)
	}
	sort.Strings(names)

	res := LULCResult{Changes: []ClassChange{}, Patterns: []string{}}
	for _, k := range names {
		delta := current[k] - previous[k]
		if math.Abs(delta) < minChange {
			continue
		}
		trend := "increasing"
		if delta < 0 {
			trend = "decreasing"
		}
		res.Changes = append(res.Changes, ClassChange{Class: k, Previous: previous[k], Current: current[k], Change: delta, Trend: trend})
	}

	cropland := current[ClassCropland] - previous[ClassCropland]
	urban := current[ClassUrban] - previous[ClassUrban]
	forest := current[ClassForest] - previous[ClassForest]
	if cropland < -5 && urban > 5 {
		res.Patterns = append(res.Patterns, PatternAgriToUrban)
	}
	if forest < -5 && cropland > 5 {
		res.Patterns = append(res.Patterns, PatternDeforestation)
	}
	if cropland < -10 {
		res.Patterns = append(res.Patterns, PatternCroplandLoss)
	}

	res.Significant = len(res.Changes) > 0
	res.Summary = fmt.Sprintf("Detected %d significant LULC changes", len(res.Changes))
	return res, nil
}
