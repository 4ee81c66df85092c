package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cropsight/internal/anomaly"
	"cropsight/internal/carbon"
	"cropsight/internal/engine"
	"cropsight/internal/imagery"
	"cropsight/internal/indices"
	"cropsight/internal/phenology"
	"cropsight/internal/risk"
	"cropsight/internal/stats"
	"cropsight/internal/stress"
	"cropsight/internal/weather"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 4 << 20

type indicesReq struct {
	Bands          map[string]float64 `json:"bands"`
	DigitalNumbers bool               `json:"digital_numbers,omitempty"`
	Scale          float64            `json:"scale,omitempty"`
}

type statisticsReq struct {
	Values    []float64     `json:"values"`
	Buckets   int           `json:"buckets,omitempty"`
	Domain    *stats.Domain `json:"domain,omitempty"`
	Precision int           `json:"precision,omitempty"`
}

type statisticsResp struct {
	Summary   stats.Summary `json:"summary"`
	Histogram []stats.Bin   `json:"histogram"`
}

type indexSetReq struct {
	Indices     map[string]float64 `json:"indices"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type yieldReq struct {
	Crop    string   `json:"crop_type"`
	NDVIMax *float64 `json:"ndvi_max,omitempty"`
	EVIMean *float64 `json:"evi_mean,omitempty"`
	LAIMean *float64 `json:"lai_mean,omitempty"`
}

type datedValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type stageReq struct {
	Series []datedValue `json:"series"`
}

type anomalyReq struct {
	Current      float64   `json:"current"`
	History      []float64 `json:"history"`
	ThresholdStd *float64  `json:"threshold_std,omitempty"`
}

type datedSet struct {
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

type changesReq struct {
	Index     string     `json:"index,omitempty"` // default NDVI
	Series    []datedSet `json:"series"`
	Threshold *float64   `json:"threshold,omitempty"`
}

type lulcReq struct {
	Current          map[string]float64 `json:"current"`
	Previous         map[string]float64 `json:"previous"`
	MinChangePercent *float64           `json:"min_change_percent,omitempty"`
}

type damageReq struct {
	Indices map[string]float64 `json:"indices"`
	Weather []weather.Day      `json:"weather,omitempty"`
	Crop    string             `json:"crop_type"`
}

type riskReq struct {
	Factors map[string]float64 `json:"factors"`
}

type spatialReq struct {
	Grid      [][]float64 `json:"grid"`
	Threshold *float64    `json:"threshold,omitempty"`
}

type batchReq struct {
	Inputs      []engine.Input `json:"inputs"`
	Parallelism int            `json:"parallelism,omitempty"`
}

type cropsResp struct {
	Default string   `json:"default"`
	Crops   []string `json:"crops"`
}

func (a *App) handleCrops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cropsResp{Default: a.crops.DefaultName(), Crops: a.crops.Names()})
}

func (a *App) handleIndexCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indices.Catalog)
}

func (a *App) handleIndices(w http.ResponseWriter, r *http.Request) {
	var req indicesReq
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		bands indices.BandSet
		err   error
	)
	if req.DigitalNumbers {
		bands, err = indices.FromDigitalNumbers(req.Bands, req.Scale)
	} else {
		bands, err = indices.NewBandSet(req.Bands)
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	set, err := indices.Compute(bands)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (a *App) handleStatistics(w http.ResponseWriter, r *http.Request) {
	var req statisticsReq
	if !decodeJSON(w, r, &req) {
		return
	}
	sum, bins, err := stats.Aggregate(req.Values, stats.Options{Buckets: req.Buckets, Domain: req.Domain, Precision: req.Precision})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statisticsResp{Summary: sum, Histogram: bins})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	var req indexSetReq
	if !decodeJSON(w, r, &req) {
		return
	}
	set, err := indices.ParseSet(req.Indices)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.engine.Health.Score(set))
}

func (a *App) handleStress(w http.ResponseWriter, r *http.Request) {
	var req indexSetReq
	if !decodeJSON(w, r, &req) {
		return
	}
	set, err := indices.ParseSet(req.Indices)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var wx *stress.Weather
	if req.Temperature != nil {
		wx = &stress.Weather{TemperatureC: *req.Temperature}
	}
	writeJSON(w, http.StatusOK, a.engine.Stress.Detect(set, wx))
}

func (a *App) handleYield(w http.ResponseWriter, r *http.Request) {
	var req yieldReq
	if !decodeJSON(w, r, &req) {
		return
	}
	est := a.engine.Yield.Estimate(req.Crop,
		orDefault(req.NDVIMax, 0.6), orDefault(req.EVIMean, 0.4), orDefault(req.LAIMean, 2.0))
	writeJSON(w, http.StatusOK, est)
}

func (a *App) handleStage(w http.ResponseWriter, r *http.Request) {
	var req stageReq
	if !decodeJSON(w, r, &req) {
		return
	}
	pts := make([]phenology.Point, len(req.Series))
	for i, p := range req.Series {
		d, err := parseDay(p.Date)
		if err != nil {
			a.writeError(w, r, fmt.Errorf("%w: series[%d].date: %v", indices.ErrInvalidInput, i, err))
			return
		}
		pts[i] = phenology.Point{Date: d, NDVI: p.Value}
	}
	stage, err := phenology.Classify(pts)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stage)
}

func (a *App) handleAnomaly(w http.ResponseWriter, r *http.Request) {
	var req anomalyReq
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := anomaly.DetectPoint(req.Current, req.History, orDefault(req.ThresholdStd, anomaly.DefaultThresholdStd))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleChanges(w http.ResponseWriter, r *http.Request) {
	var req changesReq
	if !decodeJSON(w, r, &req) {
		return
	}
	name := indices.NDVI
	if req.Index != "" {
		n, ok := indices.ParseName(req.Index)
		if !ok {
			a.writeError(w, r, fmt.Errorf("%w: unknown index %q", indices.ErrInvalidInput, req.Index))
			return
		}
		name = n
	}
	series := make([]indices.TimePoint, len(req.Series))
	for i, p := range req.Series {
		d, err := parseDay(p.Date)
		if err != nil {
			a.writeError(w, r, fmt.Errorf("%w: series[%d].date: %v", indices.ErrInvalidInput, i, err))
			return
		}
		set, err := indices.ParseSet(p.Values)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		series[i] = indices.TimePoint{Date: d, Values: set}
	}
	events, err := anomaly.DetectSuddenChanges(series, name, orDefault(req.Threshold, anomaly.DefaultChangeThreshold))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (a *App) handleLULC(w http.ResponseWriter, r *http.Request) {
	var req lulcReq
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := anomaly.DetectLULCChange(req.Current, req.Previous, orDefault(req.MinChangePercent, anomaly.DefaultMinChangePercent))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleDamage(w http.ResponseWriter, r *http.Request) {
	var req damageReq
	if !decodeJSON(w, r, &req) {
		return
	}
	set, err := indices.ParseSet(req.Indices)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	crop := req.Crop
	if crop == "" {
		crop = a.crops.DefaultName()
	}
	res, err := anomaly.DetectCropDamage(set, req.Weather, crop)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleCarbon(w http.ResponseWriter, r *http.Request) {
	var in carbon.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	est, err := a.engine.Carbon.Estimate(in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (a *App) handleRisk(w http.ResponseWriter, r *http.Request) {
	var req riskReq
	if !decodeJSON(w, r, &req) {
		return
	}
	levels := make(map[risk.Factor]float64, len(req.Factors))
	for k, v := range req.Factors {
		f, ok := risk.ParseFactor(k)
		if !ok {
			a.writeError(w, r, fmt.Errorf("%w: unknown risk factor %q", indices.ErrInvalidInput, k))
			return
		}
		levels[f] = v
	}
	res, err := risk.Aggregate(levels)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleRiskConditions(w http.ResponseWriter, r *http.Request) {
	var c risk.Conditions
	if !decodeJSON(w, r, &c) {
		return
	}
	res, err := risk.Aggregate(risk.FactorsFromConditions(c))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleSpatial(w http.ResponseWriter, r *http.Request) {
	var req spatialReq
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := anomaly.AnalyzeSpatial(req.Grid, orDefault(req.Threshold, anomaly.DefaultSpatialThreshold))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in engine.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	start := time.Now()
	rep, err := a.engine.Analyze(in)
	a.observe("request", start, err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *App) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Inputs) == 0 {
		a.writeError(w, r, fmt.Errorf("%w: inputs are required", indices.ErrInvalidInput))
		return
	}
	par := req.Parallelism
	if par <= 0 || par > a.cfg.BatchParallelism {
		par = a.cfg.BatchParallelism
	}
	start := time.Now()
	reps, err := a.engine.AnalyzeBatch(r.Context(), req.Inputs, par)
	a.observe("batch", start, err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reps)
}

// ---- helpers ----

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// decodeJSON reads the body into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps engine and imagery errors onto HTTP statuses.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, indices.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
	case errors.Is(err, imagery.ErrNoImagery):
		writeJSON(w, http.StatusNotFound, errorResp{Error: imagery.ErrNoImagery.Error()})
	case errors.Is(err, errFieldNotFound):
		writeJSON(w, http.StatusNotFound, errorResp{Error: "not found"})
	default:
		a.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "internal error"})
	}
}
