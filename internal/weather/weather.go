// Package weather holds daily weather samples and the window aggregates the
// damage and risk models read from them.
package weather

import (
	"fmt"
	"math"
	"sort"
	"time"

	mstats "github.com/montanaflynn/stats"
)

// Day is one daily sample. Nil fields were not reported.
type Day struct {
	Date            time.Time `json:"date" bson:"date"`
	TemperatureC    *float64  `json:"temperature_c,omitempty" bson:"temperature_c,omitempty"`
	TempMaxC        *float64  `json:"temp_max_c,omitempty" bson:"temp_max_c,omitempty"`
	TempMinC        *float64  `json:"temp_min_c,omitempty" bson:"temp_min_c,omitempty"`
	PrecipitationMM *float64  `json:"precipitation_mm,omitempty" bson:"precipitation_mm,omitempty"`
	HumidityPct     *float64  `json:"humidity_percent,omitempty" bson:"humidity_percent,omitempty"`
}

// Float returns a pointer to v, for building samples.
func Float(v float64) *float64 { return &v }

// Sorted returns a copy of days in date order. Equal dates keep their order.
func Sorted(days []Day) []Day {
	out := append([]Day(nil), days...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// CheckChronological fails unless dates never decrease.
func CheckChronological(days []Day) error {
	for i := 1; i < len(days); i++ {
		if days[i].Date.Before(days[i-1].Date) {
			return fmt.Errorf("weather not in date order at index %d (%s before %s)",
				i, days[i].Date.Format(time.DateOnly), days[i-1].Date.Format(time.DateOnly))
		}
	}
	return nil
}

// Last returns the trailing n days (all of them when fewer).
func Last(days []Day, n int) []Day {
	if n < len(days) {
		return days[len(days)-n:]
	}
	return days
}

// Field selects one optional value of a day.
type Field func(Day) *float64

var (
	Temperature   Field = func(d Day) *float64 { return d.TemperatureC }
	TempMax       Field = func(d Day) *float64 { return d.TempMaxC }
	TempMin       Field = func(d Day) *float64 { return d.TempMinC }
	Precipitation Field = func(d Day) *float64 { return d.PrecipitationMM }
	Humidity      Field = func(d Day) *float64 { return d.HumidityPct }
)

func values(days []Day, f Field, missing float64) []float64 {
	out := make([]float64, 0, len(days))
	for _, d := range days {
		if v := f(d); v != nil && !math.IsNaN(*v) {
			out = append(out, *v)
		} else if !math.IsNaN(missing) {
			out = append(out, missing)
		}
	}
	return out
}

// Max is the largest value of f, counting unreported days as missing.
// ok is false when there is nothing to compare.
func Max(days []Day, f Field, missing float64) (float64, bool) {
	v, err := mstats.Max(values(days, f, missing))
	return v, err == nil
}

// Min mirrors Max.
func Min(days []Day, f Field, missing float64) (float64, bool) {
	v, err := mstats.Min(values(days, f, missing))
	return v, err == nil
}

// Sum adds f over days, counting unreported days as missing.
func Sum(days []Day, f Field, missing float64) float64 {
	v, err := mstats.Sum(values(days, f, missing))
	if err != nil {
		return 0
	}
	return v
}

// Mean averages the reported values of f; unreported days are skipped.
func Mean(days []Day, f Field) (float64, bool) {
	v, err := mstats.Mean(values(days, f, math.NaN()))
	return v, err == nil
}
