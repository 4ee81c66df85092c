package indices

import (
	"fmt"
	"time"
)

// TimePoint is one dated observation of index values.
type TimePoint struct {
	Date       time.Time `json:"date" bson:"date"`
	Values     Set       `json:"values" bson:"values"`
	CloudCover *float64  `json:"cloud_cover,omitempty" bson:"cloud_cover,omitempty"`
}

// CheckChronological fails unless dates never decrease.
func CheckChronological(series []TimePoint) error {
	for i := 1; i < len(series); i++ {
		if series[i].Date.Before(series[i-1].Date) {
			return fmt.Errorf("%w: series not in date order at index %d (%s before %s)",
				ErrInvalidInput, i, series[i].Date.Format(time.DateOnly), series[i-1].Date.Format(time.DateOnly))
		}
	}
	return nil
}

// Observation is one dated, cloud-masked band measurement.
type Observation struct {
	Date       time.Time `json:"date" bson:"date"`
	Bands      BandSet   `json:"bands" bson:"bands"`
	CloudCover *float64  `json:"cloud_cover,omitempty" bson:"cloud_cover,omitempty"`
}
