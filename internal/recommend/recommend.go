// Package recommend formats agronomic advice from health and stress results.
package recommend

import (
	"fmt"

	"cropsight/internal/health"
	"cropsight/internal/stress"
)

// Generate lists advice for every condition that needs attention, or a single
// all-clear line naming the crop.
func Generate(h health.Score, s stress.Assessment, crop string) []string {
	var out []string
	if h.Overall < 50 {
		out = append(out, "Critical: Immediate field inspection recommended")
	}
	if s.Water.Level > 50 {
		out = append(out, "Increase irrigation frequency - signs of water stress detected")
	}
	if s.Nutrient.Level > 50 {
		out = append(out, "Consider foliar nitrogen application - chlorophyll content below optimal")
	}
	if s.Heat.Level > 60 {
		out = append(out, "Heat stress detected - consider mulching or shade nets")
	}
	if s.Soil.Level > 40 {
		out = append(out, "High bare soil detected - check for pest damage or poor germination")
	}
	if h.Components.Canopy < 50 {
		out = append(out, "Canopy coverage is low - verify plant population density")
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("Crop is healthy. Continue current management practices for %s", crop))
	}
	return out
}
