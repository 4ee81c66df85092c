// Package stats summarizes index samples (per-pixel or per-date) into
// descriptive statistics and equal-width histograms.
package stats

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"

	"cropsight/internal/indices"
)

// Summary is the IndexStatistics record: min <= mean <= max and std >= 0.
type Summary struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// Summarize computes min/max/mean and the population standard deviation.
func Summarize(samples []float64) (Summary, error) {
	if err := validate(samples); err != nil {
		return Summary{}, err
	}
	data := mstats.Float64Data(samples)
	lo, err := data.Min()
	if err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}
	hi, err := data.Max()
	if err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}
	mean, err := data.Mean()
	if err != nil {
		return Summary{}, fmt.Errorf("mean: %w", err)
	}
	std, err := data.StandardDeviationPopulation()
	if err != nil {
		return Summary{}, fmt.Errorf("std: %w", err)
	}
	// Summation error must not push the mean outside the observed range.
	mean = math.Max(lo, math.Min(hi, mean))
	return Summary{Min: lo, Max: hi, Mean: mean, Std: math.Max(0, std), Count: len(samples)}, nil
}

// Aggregate returns both the summary and the histogram of samples.
func Aggregate(samples []float64, opts Options) (Summary, []Bin, error) {
	sum, err := Summarize(samples)
	if err != nil {
		return Summary{}, nil, err
	}
	bins, err := Histogram(samples, opts)
	if err != nil {
		return Summary{}, nil, err
	}
	return sum, bins, nil
}

// Collect gathers the defined values of one index across sets, in order.
func Collect(sets []indices.Set, name indices.Name) []float64 {
	out := make([]float64, 0, len(sets))
	for _, s := range sets {
		if v, ok := s.Get(name); ok {
			out = append(out, v)
		}
	}
	return out
}

// SummarizeSets summarizes each requested index across sets. Indices that are
// undefined in every set are omitted.
func SummarizeSets(sets []indices.Set, names []indices.Name) map[indices.Name]Summary {
	out := make(map[indices.Name]Summary, len(names))
	for _, n := range names {
		vals := Collect(sets, n)
		if len(vals) == 0 {
			continue
		}
		if s, err := Summarize(vals); err == nil {
			out[n] = s
		}
	}
	return out
}

// MeanSet averages every index over the sets where it is defined.
func MeanSet(sets []indices.Set) indices.Set {
	out := make(indices.Set, len(indices.All))
	for _, n := range indices.All {
		vals := Collect(sets, n)
		if len(vals) == 0 {
			continue
		}
		if m, err := mstats.Mean(vals); err == nil {
			out[n] = m
		}
	}
	return out
}

func validate(samples []float64) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: no samples", indices.ErrInvalidInput)
	}
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: sample %d is not finite", indices.ErrInvalidInput, i)
		}
	}
	return nil
}
