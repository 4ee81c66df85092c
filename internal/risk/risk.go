// Package risk combines six independently assessed risk factors into an
// overall weighted risk with alerts.
package risk

import (
	"fmt"
	"math"
	"strings"

	"cropsight/internal/indices"
	"cropsight/internal/stress"
)

type Factor string

const (
	Drought  Factor = "drought"
	Flood    Factor = "flood"
	Pest     Factor = "pest"
	Disease  Factor = "disease"
	Frost    Factor = "frost"
	Heatwave Factor = "heatwave"
)

// Factors lists every factor in weighting order.
var Factors = []Factor{Drought, Flood, Pest, Disease, Frost, Heatwave}

// Weights are integer percentages so that they sum to exactly 100.
var Weights = map[Factor]int{
	Drought:  25,
	Flood:    15,
	Pest:     20,
	Disease:  20,
	Frost:    10,
	Heatwave: 10,
}

var descriptions = map[Factor]string{
	Drought:  "Based on LSWI and precipitation deficit analysis",
	Flood:    "Based on soil moisture and rainfall patterns",
	Pest:     "Based on temperature and humidity conditions favoring pest activity",
	Disease:  "Based on weather conditions and crop stage vulnerability",
	Frost:    "Based on minimum temperature forecasts",
	Heatwave: "Based on maximum temperature forecasts",
}

// Title is the display name of f ("Drought").
func (f Factor) Title() string {
	if f == "" {
		return ""
	}
	return strings.ToUpper(string(f[:1])) + string(f[1:])
}

func ParseFactor(s string) (Factor, bool) {
	for _, f := range Factors {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

type FactorLevel struct {
	Name        string        `json:"name" bson:"name"`
	Level       float64       `json:"level" bson:"level"`
	Status      stress.Status `json:"status" bson:"status"`
	Description string        `json:"description" bson:"description"`
}

type Alert struct {
	Factor   Factor `json:"type" bson:"type"`
	Severity string `json:"severity" bson:"severity"`
	Message  string `json:"message" bson:"message"`
}

type Assessment struct {
	Factors map[Factor]FactorLevel `json:"risk_factors" bson:"risk_factors"`
	Overall float64                `json:"overall_risk" bson:"overall_risk"`
	Status  stress.Status          `json:"overall_status" bson:"overall_status"`
	Alerts  []Alert                `json:"alerts" bson:"alerts"`
}

// Aggregate weights the six factor levels into an overall level. Every factor
// must be present and within [0,100]; unknown factors are rejected.
func Aggregate(levels map[Factor]float64) (Assessment, error) {
	for f := range levels {
		if _, ok := Weights[f]; !ok {
			return Assessment{}, fmt.Errorf("%w: unknown risk factor %q", indices.ErrInvalidInput, f)
		}
	}

	a := Assessment{Factors: make(map[Factor]FactorLevel, len(Factors)), Alerts: []Alert{}}
	var weighted float64
	for _, f := range Factors {
		v, ok := levels[f]
		if !ok {
			return Assessment{}, fmt.Errorf("%w: missing risk factor %q", indices.ErrInvalidInput, f)
		}
		if math.IsNaN(v) || v < 0 || v > 100 {
			return Assessment{}, fmt.Errorf("%w: risk factor %q level %v outside [0,100]", indices.ErrInvalidInput, f, v)
		}
		st := stress.DefaultLadder.Classify(v)
		lvl := FactorLevel{Name: f.Title(), Level: v, Status: st, Description: descriptions[f]}
		a.Factors[f] = lvl
		weighted += v * float64(Weights[f])

		msg := fmt.Sprintf("%s risk is %s. %s", lvl.Name, st, lvl.Description)
		switch st {
		case stress.Critical:
			a.Alerts = append(a.Alerts, Alert{Factor: f, Severity: "critical", Message: msg})
		case stress.High:
			a.Alerts = append(a.Alerts, Alert{Factor: f, Severity: "warning", Message: msg})
		}
	}
	a.Overall = weighted / 100
	a.Status = stress.DefaultLadder.Classify(a.Overall)
	return a, nil
}
