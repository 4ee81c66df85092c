package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cropsight/internal/engine"
)

// Analysis is one stored engine run. Documents are written once and never
// updated; a later request with the same key and inputs reuses the report.
type Analysis struct {
	ID              string             `bson:"_id"             json:"id"` // uuid
	Key             string             `bson:"key"             json:"key"`
	FieldID         primitive.ObjectID `bson:"fieldId"         json:"fieldId"`
	OwnerID         primitive.ObjectID `bson:"ownerId"         json:"-"`
	Start           time.Time          `bson:"start"           json:"start"`
	End             time.Time          `bson:"end"             json:"end"`
	AreaHa          float64            `bson:"areaHa"          json:"areaHa"`
	DaysSinceSowing int                `bson:"daysSinceSowing" json:"daysSinceSowing"`
	MaxCloudCover   float64            `bson:"maxCloudCover"   json:"maxCloudCover"`
	Source          string             `bson:"source"          json:"source"` // observations | mean_indices
	CreatedAt       time.Time          `bson:"createdAt"       json:"createdAt"`
	Report          engine.Report      `bson:"report"          json:"report"`
}

// AnalysisSummary is the headline of an analysis shown in field listings.
type AnalysisSummary struct {
	ID           string    `bson:"_id"          json:"id"`
	CreatedAt    time.Time `bson:"createdAt"    json:"createdAt"`
	HealthScore  float64   `bson:"healthScore"  json:"healthScore"`
	HealthStatus string    `bson:"healthStatus" json:"healthStatus"`
	YieldTph     float64   `bson:"yieldTph"     json:"yieldTph"`
	Stage        string    `bson:"stage"        json:"stage"`
	RiskStatus   string    `bson:"riskStatus"   json:"riskStatus"`
}

// Summary extracts the headline figures of a.
func (a Analysis) Summary() AnalysisSummary {
	return AnalysisSummary{
		ID:           a.ID,
		CreatedAt:    a.CreatedAt,
		HealthScore:  a.Report.Health.Overall,
		HealthStatus: string(a.Report.Health.Status),
		YieldTph:     a.Report.Yield.Point,
		Stage:        a.Report.Stage.Name,
		RiskStatus:   string(a.Report.Risk.Status),
	}
}
