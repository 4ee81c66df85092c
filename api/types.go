package main

import (
	"encoding/json"
	"time"

	"cropsight/api/models"
)

// Request/response DTOs. Keep them minimal and explicit.

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

type createFieldReq struct {
	Name       string          `json:"name"`
	Geometry   json.RawMessage `json:"geometry"`         // GeoJSON Polygon/MultiPolygon
	AreaHa     *float64        `json:"areaHa,omitempty"` // stored under meta.areaHa
	Notes      string          `json:"notes,omitempty"`
	Crop       string          `json:"crop,omitempty"`
	SowingDate string          `json:"sowingDate,omitempty"` // YYYY-MM-DD
	Photo      string          `json:"photo,omitempty"`

	Yields []models.YieldEntry `json:"yields,omitempty"`
}

type analysisReq struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`
	// MaxCloudCover overrides MAX_CLOUD_COVER when set.
	MaxCloudCover *float64 `json:"maxCloudCover,omitempty"`
}

type analysisResp struct {
	models.Analysis
	Cached bool `json:"cached"`
}

type errorResp struct {
	Error string `json:"error"`
}

// parseDay accepts YYYY-MM-DD or RFC3339 and returns the UTC date.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return dateOnlyUTC(t), nil
}

// dateOnlyUTC normalizes a timestamp to 00:00:00 UTC (one bucket per day).
func dateOnlyUTC(t time.Time) time.Time {
	tt := t.UTC()
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.UTC)
}
