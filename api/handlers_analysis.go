package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cropsight/api/models"
	"cropsight/internal/engine"
	"cropsight/internal/imagery"
	"cropsight/internal/indices"
	"cropsight/internal/weather"
)

const (
	sourceObservations = "observations"
	sourceMeanIndices  = "mean_indices"

	defaultAnalysesLimit = 20
	maxAnalysesLimit     = 100
)

var errFieldNotFound = errors.New("field not found")

// handleAnalyzeField runs (or reuses) an analysis of one field over a date range.
func (a *App) handleAnalyzeField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	var req analysisReq
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := parseDay(req.Start)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: start: %v", indices.ErrInvalidInput, err))
		return
	}
	end, err := parseDay(req.End)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: end: %v", indices.ErrInvalidInput, err))
		return
	}

	f, err := a.loadField(r.Context(), uid, oid)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	cloud := a.cfg.MaxCloudCover
	if req.MaxCloudCover != nil {
		cloud = *req.MaxCloudCover
	}

	an, cached, err := a.runAnalysis(r.Context(), f, imagery.Query{Start: start, End: end, MaxCloudCover: cloud})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	writeJSON(w, status, analysisResp{Analysis: an, Cached: cached})
}

// handleListAnalyses returns a field's analyses, newest first.
func (a *App) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	limit := int64(defaultAnalysesLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxAnalysesLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()
	out, err := a.analyses.List(ctx, uid, oid, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// runAnalysis fetches imagery and weather for f concurrently, runs the engine
// and stores the result. When caching is on, an earlier analysis with the same
// inputs is returned instead and reported as cached.
func (a *App) runAnalysis(ctx context.Context, f models.Field, q imagery.Query) (models.Analysis, bool, error) {
	geom, err := json.Marshal(f.Geometry)
	if err != nil {
		return models.Analysis{}, false, fmt.Errorf("%w: field geometry: %v", indices.ErrInvalidInput, err)
	}
	q.Geometry = geom
	if err := q.Validate(); err != nil {
		return models.Analysis{}, false, err
	}

	crop := a.crops.DefaultName()
	var area float64
	if f.Meta != nil {
		if f.Meta.Crop != "" {
			crop = f.Meta.Crop
		}
		if f.Meta.AreaHa != nil {
			area = *f.Meta.AreaHa
		}
	}
	days := f.Meta.DaysSinceSowing(q.End)

	key, err := engine.CacheKey(geom, q.Start, q.End, crop, indices.All)
	if err != nil {
		return models.Analysis{}, false, err
	}
	lookup := analysisLookup{
		OwnerID:         f.OwnerID,
		FieldID:         f.ID,
		Key:             key,
		AreaHa:          area,
		DaysSinceSowing: days,
		MaxCloudCover:   q.MaxCloudCover,
	}
	if a.cfg.CacheEnabled {
		hit, err := a.analyses.Find(ctx, lookup)
		if err != nil {
			return models.Analysis{}, false, err
		}
		if hit != nil {
			a.metrics.cache.WithLabelValues("hit").Inc()
			return *hit, true, nil
		}
		a.metrics.cache.WithLabelValues("miss").Inc()
	}

	timeout := a.cfg.AnalysisTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	began := time.Now()
	in := engine.Input{Crop: crop, AreaHa: area, DaysSinceSowing: days}
	source, err := a.fetchInputs(ctx, q, &in)
	if err != nil {
		a.observe(sourceObservations, began, err)
		return models.Analysis{}, false, err
	}
	rep, err := a.engine.Analyze(in)
	a.observe(source, began, err)
	if err != nil {
		return models.Analysis{}, false, err
	}

	an := models.Analysis{
		ID:              uuid.NewString(),
		Key:             key,
		FieldID:         f.ID,
		OwnerID:         f.OwnerID,
		Start:           q.Start,
		End:             q.End,
		AreaHa:          area,
		DaysSinceSowing: days,
		MaxCloudCover:   q.MaxCloudCover,
		Source:          source,
		CreatedAt:       time.Now().UTC(),
		Report:          rep,
	}
	if err := a.analyses.Insert(ctx, an); err != nil {
		return models.Analysis{}, false, err
	}
	a.log.Info("field analyzed",
		zap.String("analysis_id", an.ID),
		zap.String("field_id", f.ID.Hex()),
		zap.String("source", source),
		zap.Int("images", rep.ImageCount),
		zap.Duration("took", time.Since(began)),
	)
	return an, false, nil
}

// fetchInputs loads observations and weather in parallel. Without any
// observation it falls back to the provider's mean index set. Missing
// weather is not an error.
func (a *App) fetchInputs(ctx context.Context, q imagery.Query, in *engine.Input) (string, error) {
	var (
		obs  []indices.Observation
		days []weather.Day
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := a.imagery.Observations(gctx, q)
		if errors.Is(err, imagery.ErrNoImagery) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("observations: %w", err)
		}
		obs = o
		return nil
	})
	g.Go(func() error {
		d, err := a.imagery.Weather(gctx, q)
		if errors.Is(err, imagery.ErrNoImagery) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("weather: %w", err)
		}
		days = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}
	in.Observations, in.Weather = obs, days
	if len(obs) > 0 {
		return sourceObservations, nil
	}

	mean, err := a.imagery.MeanIndices(ctx, q)
	if err != nil {
		return "", fmt.Errorf("mean indices: %w", err)
	}
	in.MeanIndices = mean
	return sourceMeanIndices, nil
}

// observe records an analysis outcome and its latency.
func (a *App) observe(source string, began time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, imagery.ErrNoImagery):
		outcome = "no_imagery"
	case errors.Is(err, indices.ErrInvalidInput):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	a.metrics.analyses.WithLabelValues(outcome).Inc()
	a.metrics.duration.WithLabelValues(source).Observe(time.Since(began).Seconds())
}

// loadField returns the caller's field or errFieldNotFound.
func (a *App) loadField(ctx context.Context, uid, oid primitive.ObjectID) (models.Field, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var f models.Field
	err := a.fields.FindOne(ctx, bson.M{"_id": oid, "ownerId": uid}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Field{}, errFieldNotFound
	}
	if err != nil {
		return models.Field{}, fmt.Errorf("load field: %w", err)
	}
	return f, nil
}
