// Package anomaly flags statistical anomalies, sudden changes, land-cover
// shifts and crop damage in index data.
package anomaly

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"

	"cropsight/internal/indices"
)

const (
	DefaultThresholdStd = 2.0
	// MinHistory is the number of historical values needed for a z-score.
	MinHistory = 5
	// MinStd floors the historical deviation of a flat series.
	MinStd = 0.001
)

type Kind string

const (
	Decline  Kind = "significant_decline"
	Increase Kind = "unexpected_increase"
	Normal   Kind = "normal"
)

type Result struct {
	IsAnomaly  bool    `json:"is_anomaly" bson:"is_anomaly"`
	Kind       Kind    `json:"anomaly_type,omitempty" bson:"anomaly_type,omitempty"`
	ZScore     float64 `json:"z_score" bson:"z_score"`
	Confidence float64 `json:"confidence" bson:"confidence"`
	Current    float64 `json:"current_value" bson:"current_value"`
	Mean       float64 `json:"historical_mean" bson:"historical_mean"`
	Std        float64 `json:"historical_std" bson:"historical_std"`
	Message    string  `json:"message" bson:"message"`
}

// DetectPoint scores current against history with a z-score. Short histories
// return a non-anomalous result with zero confidence rather than an error.
func DetectPoint(current float64, history []float64, thresholdStd float64) (Result, error) {
	if !(thresholdStd > 0) || math.IsInf(thresholdStd, 0) {
		return Result{}, fmt.Errorf("%w: threshold %v must be positive", indices.ErrInvalidInput, thresholdStd)
	}
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return Result{}, fmt.Errorf("%w: current value is not finite", indices.ErrInvalidInput)
	}
	if len(history) < MinHistory {
		return Result{Current: current, Message: "Insufficient historical data"}, nil
	}
	for i, v := range history {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, fmt.Errorf("%w: historical value %d is not finite", indices.ErrInvalidInput, i)
		}
	}

	data := mstats.Float64Data(history)
	mean, err := data.Mean()
	if err != nil {
		return Result{}, fmt.Errorf("historical mean: %w", err)
	}
	std, err := data.StandardDeviationPopulation()
	if err != nil {
		return Result{}, fmt.Errorf("historical std: %w", err)
	}
	std = math.Max(std, MinStd)

	z := (current - mean) / std
	r := Result{
		IsAnomaly:  math.Abs(z) > thresholdStd,
		Kind:       Normal,
		ZScore:     z,
		Confidence: math.Min(100, math.Abs(z)/thresholdStd*50),
		Current:    current,
		Mean:       mean,
		Std:        std,
		Message:    "Value within normal range",
	}
	if r.IsAnomaly {
		if z < 0 {
			r.Kind = Decline
			r.Message = fmt.Sprintf("Value dropped significantly (%.2f vs mean %.2f)", current, mean)
		} else {
			r.Kind = Increase
			r.Message = fmt.Sprintf("Value increased unexpectedly (%.2f vs mean %.2f)", current, mean)
		}
	}
	return r, nil
}
