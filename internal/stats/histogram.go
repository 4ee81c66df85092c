package stats

import (
	"fmt"
	"math"
	"sort"

	"cropsight/internal/indices"
)

const (
	DefaultBuckets   = 10
	DefaultPrecision = 2

	MaxBuckets   = 100
	MaxPrecision = 6
)

// Domain fixes the histogram range instead of using the observed min/max.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Options controls histogram construction. Zero values select the defaults.
type Options struct {
	Buckets   int     `json:"buckets,omitempty"`
	Domain    *Domain `json:"domain,omitempty"`
	Precision int     `json:"precision,omitempty"` // decimals kept in Bin.Percentage
}

// Bin is one histogram bucket. Every bucket is [MinValue, MaxValue) except the
// last, which also includes MaxValue.
type Bin struct {
	Range      string  `json:"range"`
	MinValue   float64 `json:"min_value"`
	MaxValue   float64 `json:"max_value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Histogram buckets samples into equal-width bins. No sample is dropped: values
// outside a fixed Domain are counted in the nearest edge bin. When every sample
// has the same value a single bin is returned.
func Histogram(samples []float64, opts Options) ([]Bin, error) {
	if err := validate(samples); err != nil {
		return nil, err
	}
	n := opts.Buckets
	if n <= 0 {
		n = DefaultBuckets
	}
	if n > MaxBuckets {
		return nil, fmt.Errorf("%w: %d buckets exceeds the limit of %d", indices.ErrInvalidInput, n, MaxBuckets)
	}
	precision := opts.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}
	if precision > MaxPrecision {
		return nil, fmt.Errorf("%w: precision %d exceeds the limit of %d", indices.ErrInvalidInput, precision, MaxPrecision)
	}

	var lo, hi float64
	if opts.Domain != nil {
		lo, hi = opts.Domain.Min, opts.Domain.Max
		if !(hi > lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return nil, fmt.Errorf("%w: histogram domain [%v, %v] is empty", indices.ErrInvalidInput, lo, hi)
		}
	} else {
		lo, hi = samples[0], samples[0]
		for _, v := range samples[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	if hi == lo {
		return []Bin{newBin(lo, hi, len(samples), 100)}, nil
	}

	edges := make([]float64, n+1)
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi

	counts := make([]int, n)
	for _, v := range samples {
		counts[bucketOf(v, edges)]++
	}

	pct := percentages(counts, len(samples), precision)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = newBin(edges[i], edges[i+1], counts[i], pct[i])
	}
	return bins, nil
}

// bucketOf returns the index of the bucket holding v. The arithmetic guess is
// corrected against the stored edges so that edge values land consistently.
func bucketOf(v float64, edges []float64) int {
	n := len(edges) - 1
	lo, hi := edges[0], edges[n]
	if v <= lo {
		return 0
	}
	if v >= hi {
		return n - 1
	}
	i := int((v - lo) / (hi - lo) * float64(n))
	if i >= n {
		i = n - 1
	}
	for i > 0 && v < edges[i] {
		i--
	}
	for i < n-1 && v >= edges[i+1] {
		i++
	}
	return i
}

// percentages converts counts to percentages of total rounded to precision
// decimals. Largest-remainder rounding keeps the sum at exactly 100.
func percentages(counts []int, total, precision int) []float64 {
	unit := math.Pow10(precision)
	units := make([]float64, len(counts))
	frac := make([]float64, len(counts))
	left := 100 * unit
	for i, c := range counts {
		exact := 100 * unit * float64(c) / float64(total)
		units[i] = math.Floor(exact)
		frac[i] = exact - units[i]
		left -= units[i]
	}

	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return frac[order[a]] > frac[order[b]] })
	for k := 0; k < int(math.Round(left)) && k < len(order); k++ {
		units[order[k]]++
	}

	out := make([]float64, len(counts))
	for i, u := range units {
		out[i] = u / unit
	}
	return out
}

func newBin(lo, hi float64, count int, pct float64) Bin {
	return Bin{
		Range:      fmt.Sprintf("%.2f-%.2f", lo, hi),
		MinValue:   lo,
		MaxValue:   hi,
		Count:      count,
		Percentage: pct,
	}
}
