// Package engine runs the full crop analysis over one field's observations.
// It holds no mutable state and performs no I/O.
package engine

import (
	"fmt"
	"math"
	"sort"

	"cropsight/internal/anomaly"
	"cropsight/internal/carbon"
	"cropsight/internal/crops"
	"cropsight/internal/health"
	"cropsight/internal/indices"
	"cropsight/internal/phenology"
	"cropsight/internal/recommend"
	"cropsight/internal/risk"
	"cropsight/internal/stats"
	"cropsight/internal/stress"
	"cropsight/internal/weather"
	"cropsight/internal/yield"
)

// NDVIBuckets is the bucket count of the report's NDVI histogram.
const NDVIBuckets = 15

// Fallbacks for the yield and carbon inputs when the index is undefined.
const (
	fallbackNDVIMax = 0.6
	fallbackEVIMean = 0.4
	fallbackLAIMean = 2.0
)

type Input struct {
	Crop            string  `json:"crop_type"`
	AreaHa          float64 `json:"area_ha"`
	DaysSinceSowing int     `json:"days_since_sowing"`
	// Observations need not be sorted.
	Observations []indices.Observation `json:"observations,omitempty"`
	// MeanIndices is used when there are no observations. Names match
	// case-insensitively; unknown names are rejected.
	MeanIndices indices.Set `json:"mean_indices,omitempty"`
	// Weather need not be sorted.
	Weather []weather.Day `json:"weather,omitempty"`
}

type Report struct {
	Crop            string                         `json:"crop_type" bson:"crop_type"`
	ImageCount      int                            `json:"image_count" bson:"image_count"`
	Indices         indices.Set                    `json:"indices" bson:"indices"`
	Statistics      map[indices.Name]stats.Summary `json:"statistics,omitempty" bson:"statistics,omitempty"`
	NDVIHistogram   []stats.Bin                    `json:"ndvi_histogram,omitempty" bson:"ndvi_histogram,omitempty"`
	TimeSeries      []indices.TimePoint            `json:"time_series,omitempty" bson:"time_series,omitempty"`
	Health          health.Score                   `json:"health" bson:"health"`
	Stress          stress.Assessment              `json:"stress" bson:"stress"`
	Yield           yield.Estimate                 `json:"yield" bson:"yield"`
	Stage           phenology.Stage                `json:"crop_stage" bson:"crop_stage"`
	Anomaly         *anomaly.Result                `json:"anomaly,omitempty" bson:"anomaly,omitempty"`
	Changes         []anomaly.ChangeEvent          `json:"changes" bson:"changes"`
	Damage          anomaly.DamageResult           `json:"damage" bson:"damage"`
	Carbon          carbon.Estimate                `json:"carbon" bson:"carbon"`
	Risk            risk.Assessment                `json:"risk" bson:"risk"`
	Recommendations []string                       `json:"recommendations" bson:"recommendations"`
}

// Engine bundles the scoring models. Its fields are read-only once built, so
// one Engine may serve concurrent analyses.
type Engine struct {
	Health health.Model
	Stress stress.Model
	Yield  yield.Estimator
	Carbon carbon.Estimator
}

// New builds an engine over a crop table; nil selects the built-in table.
func New(table *crops.Table) *Engine {
	return &Engine{
		Health: health.DefaultModel(),
		Stress: stress.DefaultModel(),
		Yield:  yield.NewEstimator(table),
		Carbon: carbon.NewEstimator(table),
	}
}

// Analyze produces the comprehensive report for one field.
func (e *Engine) Analyze(in Input) (Report, error) {
	if len(in.Observations) == 0 && len(in.MeanIndices) == 0 {
		return Report{}, fmt.Errorf("%w: no observations or mean indices", indices.ErrInvalidInput)
	}

	meanIn, err := in.MeanIndices.Canonical()
	if err != nil {
		return Report{}, fmt.Errorf("mean indices: %w", err)
	}

	obs := append([]indices.Observation(nil), in.Observations...)
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	days := weather.Sorted(in.Weather)

	series := make([]indices.TimePoint, 0, len(obs))
	sets := make([]indices.Set, 0, len(obs))
	for _, o := range obs {
		set, err := indices.Compute(o.Bands)
		if err != nil {
			return Report{}, fmt.Errorf("observation %s: %w", o.Date.Format("2006-01-02"), err)
		}
		series = append(series, indices.TimePoint{Date: o.Date, Values: set, CloudCover: o.CloudCover})
		sets = append(sets, set)
	}

	rep := Report{ImageCount: len(obs), TimeSeries: series}
	if len(sets) > 0 {
		rep.Indices = stats.MeanSet(sets)
		rep.Statistics = stats.SummarizeSets(sets, indices.All)
		if ndvi := stats.Collect(sets, indices.NDVI); len(ndvi) > 0 {
			bins, err := stats.Histogram(ndvi, stats.Options{Buckets: NDVIBuckets})
			if err != nil {
				return Report{}, fmt.Errorf("ndvi histogram: %w", err)
			}
			rep.NDVIHistogram = bins
		}
	} else {
		rep.Indices = meanIn
	}
	mean := rep.Indices

	var temp *stress.Weather
	if t, ok := weather.Mean(days, weather.Temperature); ok {
		temp = &stress.Weather{TemperatureC: t}
	}
	rep.Health = e.Health.Score(mean)
	rep.Stress = e.Stress.Detect(mean, temp)

	ndviMax := fallbackNDVIMax
	if s, ok := rep.Statistics[indices.NDVI]; ok {
		ndviMax = s.Max
	} else if v, ok := mean.Get(indices.NDVI); ok {
		ndviMax = v
	}
	rep.Yield = e.Yield.Estimate(in.Crop, ndviMax, mean.Or(indices.EVI, fallbackEVIMean), mean.Or(indices.LAI, fallbackLAIMean))
	rep.Crop = rep.Yield.Crop

	if err := classify(&rep, series); err != nil {
		return Report{}, err
	}

	rep.Changes, err = anomaly.DetectSuddenChanges(series, indices.NDVI, anomaly.DefaultChangeThreshold)
	if err != nil {
		return Report{}, fmt.Errorf("sudden changes: %w", err)
	}

	rep.Damage, err = anomaly.DetectCropDamage(mean, days, rep.Crop)
	if err != nil {
		return Report{}, fmt.Errorf("damage: %w", err)
	}

	rep.Carbon, err = e.Carbon.Estimate(carbon.Input{
		NDVI:            mean.Or(indices.NDVI, e.Health.Defaults.NDVI),
		LAI:             mean.Or(indices.LAI, fallbackLAIMean),
		AreaHa:          in.AreaHa,
		Crop:            rep.Crop,
		DaysSinceSowing: in.DaysSinceSowing,
	})
	if err != nil {
		return Report{}, fmt.Errorf("carbon: %w", err)
	}

	rep.Risk, err = risk.Aggregate(risk.FactorsFromConditions(conditions(rep.Stress, mean, days)))
	if err != nil {
		return Report{}, fmt.Errorf("risk: %w", err)
	}

	rep.Recommendations = recommend.Generate(rep.Health, rep.Stress, rep.Crop)
	return rep, nil
}

// classify fills the stage and the latest-NDVI anomaly from the series.
func classify(rep *Report, series []indices.TimePoint) error {
	var pts []phenology.Point
	for _, p := range series {
		if v, ok := p.Values.Get(indices.NDVI); ok {
			pts = append(pts, phenology.Point{Date: p.Date, NDVI: v})
		}
	}
	stage, err := phenology.Classify(pts)
	if err != nil {
		return fmt.Errorf("crop stage: %w", err)
	}
	rep.Stage = stage

	if len(pts) == 0 {
		return nil
	}
	hist := stage.Values[:len(stage.Values)-1]
	res, err := anomaly.DetectPoint(stage.Values[len(stage.Values)-1], hist, anomaly.DefaultThresholdStd)
	if err != nil {
		return fmt.Errorf("anomaly: %w", err)
	}
	rep.Anomaly = &res
	return nil
}

var nan = math.NaN()

func conditions(s stress.Assessment, mean indices.Set, days []weather.Day) risk.Conditions {
	c := risk.Conditions{
		WaterStress:    s.Water.Level,
		NutrientStress: s.Nutrient.Level,
		NDWI:           mean.Or(indices.NDWI, 0),
	}
	if len(days) == 0 {
		return c
	}
	recent := weather.Last(days, anomaly.DroughtWindowDays)
	rain := weather.Sum(recent, weather.Precipitation, 0)
	c.Precip14MM = &rain
	if v, ok := weather.Mean(days, weather.Temperature); ok {
		c.MeanTempC = &v
	}
	if v, ok := weather.Mean(days, weather.Humidity); ok {
		c.HumidityPct = &v
	}
	if v, ok := weather.Min(days, weather.TempMin, nan); ok {
		c.MinTempC = &v
	} else if v, ok := weather.Min(days, weather.Temperature, nan); ok {
		c.MinTempC = &v
	}
	if v, ok := weather.Max(days, weather.TempMax, nan); ok {
		c.MaxTempC = &v
	} else if v, ok := weather.Max(days, weather.Temperature, nan); ok {
		c.MaxTempC = &v
	}
	return c
}
