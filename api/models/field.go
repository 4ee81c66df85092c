package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username"      json:"username"`
	Email        string             `bson:"email"         json:"email"`
	PasswordHash string             `bson:"passwordHash"  json:"passwordHash,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"     json:"createdAt"`
}

// Field is a farmer's plot: its boundary and the crop metadata the analysis
// needs. Analyses are stored separately (see models/analysis.go).
type Field struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId"      json:"ownerId"`
	Name      string             `bson:"name"         json:"name"`
	Geometry  map[string]any     `bson:"geometry"     json:"geometry"` // GeoJSON Polygon/MultiPolygon
	CreatedAt time.Time          `bson:"createdAt"    json:"createdAt"`

	Photo string     `bson:"photo,omitempty" json:"photo,omitempty"`
	Meta  *FieldMeta `bson:"meta,omitempty"  json:"meta,omitempty"`

	// Farmer-reported yields, kept for comparison with estimates.
	Yields []YieldEntry `bson:"yields,omitempty" json:"yields,omitempty"`

	// Latest analysis summary, injected on read.
	LastAnalysis *AnalysisSummary `bson:"-" json:"lastAnalysis,omitempty"`
}

type FieldMeta struct {
	AreaHa     *float64   `bson:"areaHa,omitempty"     json:"areaHa,omitempty"`
	Notes      string     `bson:"notes,omitempty"      json:"notes,omitempty"`
	Crop       string     `bson:"crop,omitempty"       json:"crop,omitempty"` // wheat | rice | maize | ...
	SowingDate *time.Time `bson:"sowingDate,omitempty" json:"sowingDate,omitempty"`
}

// DaysSinceSowing counts whole days from sowing to at; 0 when unknown or
// in the future.
func (m *FieldMeta) DaysSinceSowing(at time.Time) int {
	if m == nil || m.SowingDate == nil {
		return 0
	}
	d := int(at.Sub(*m.SowingDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

type YieldEntry struct {
	Year     int      `bson:"year"               json:"year"`
	ValueTph *float64 `bson:"valueTph,omitempty" json:"valueTph,omitempty"` // tons/ha
	Unit     string   `bson:"unit,omitempty"     json:"unit,omitempty"`     // default "t/ha"
	Notes    string   `bson:"notes,omitempty"    json:"notes,omitempty"`
}
