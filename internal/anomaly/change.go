package anomaly

import (
	"fmt"
	"math"
	"time"

	"cropsight/internal/indices"
)

const (
	DefaultChangeThreshold = 0.15
	// HighChange separates high from moderate severity.
	HighChange = 0.25
)

type ChangeEvent struct {
	Date          time.Time `json:"date" bson:"date"`
	Previous      float64   `json:"previous_value" bson:"previous_value"`
	Current       float64   `json:"current_value" bson:"current_value"`
	Change        float64   `json:"change" bson:"change"`
	ChangePercent float64   `json:"change_percent" bson:"change_percent"`
	Direction     string    `json:"type" bson:"type"`
	Severity      string    `json:"severity" bson:"severity"`
}

// DetectSuddenChanges flags steps between consecutive points defining index
// whose absolute change reaches threshold. Points lacking the index are
// skipped, so a step may span them.
func DetectSuddenChanges(series []indices.TimePoint, index indices.Name, threshold float64) ([]ChangeEvent, error) {
	if !(threshold > 0) || math.IsInf(threshold, 0) {
		return nil, fmt.Errorf("%w: change threshold %v must be positive", indices.ErrInvalidInput, threshold)
	}
	if err := indices.CheckChronological(series); err != nil {
		return nil, err
	}

	events := []ChangeEvent{}
	var prev float64
	seen := false
	for _, p := range series {
		cur, ok := p.Values.Get(index)
		if !ok {
			continue
		}
		if seen {
			delta := cur - prev
			if math.Abs(delta) >= threshold {
				events = append(events, newChangeEvent(p.Date, prev, cur))
			}
		}
		prev, seen = cur, true
	}
	return events, nil
}

func newChangeEvent(date time.Time, prev, cur float64) ChangeEvent {
	delta := cur - prev
	e := ChangeEvent{
		Date:      date,
		Previous:  prev,
		Current:   cur,
		Change:    delta,
		Direction: "increase",
		Severity:  "moderate",
	}
	if prev != 0 {
		e.ChangePercent = delta / prev * 100
	}
	if delta < 0 {
		e.Direction = "decline"
	}
	if math.Abs(delta) > HighChange {
		e.Severity = "high"
	}
	return e
}
