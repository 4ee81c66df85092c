package imagery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"cropsight/internal/indices"
	"cropsight/internal/weather"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	// Scale converts digital numbers to reflectance.
	Scale float64
}

// Client talks to the processor service over HTTP. Build one per process and
// share it; it is safe for concurrent use.
type Client struct {
	http  *resty.Client
	scale float64
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" || base == "local" {
		base = "http://127.0.0.1:8000"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 2 * time.Second
	}
	if opts.Scale <= 0 {
		opts.Scale = indices.DefaultScale
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetHeader("Accept", "application/json")
	return &Client{http: client, scale: opts.Scale}
}

type queryReq struct {
	Geometry      json.RawMessage `json:"geometry"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	MaxCloudCover float64         `json:"max_cloud_cover"`
}

type observationResp struct {
	Observations []struct {
		Date       string             `json:"date"`
		CloudCover *float64           `json:"cloud_cover"`
		Bands      map[string]float64 `json:"bands"`
	} `json:"observations"`
	// DigitalNumbers marks bands delivered as scaled integers.
	DigitalNumbers bool `json:"digital_numbers"`
}

type meanResp struct {
	Indices map[string]*float64 `json:"indices"`
}

type weatherResp struct {
	Days []struct {
		Date            string   `json:"date"`
		TemperatureC    *float64 `json:"temperature_c"`
		TempMaxC        *float64 `json:"temp_max_c"`
		TempMinC        *float64 `json:"temp_min_c"`
		PrecipitationMM *float64 `json:"precipitation_mm"`
		HumidityPct     *float64 `json:"humidity_percent"`
	} `json:"days"`
}

// Ping checks that the processor is reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("processor health: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("processor health returned status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) Observations(ctx context.Context, q Query) ([]indices.Observation, error) {
	var out observationResp
	if err := c.post(ctx, "/observations", q, &out); err != nil {
		return nil, err
	}
	if len(out.Observations) == 0 {
		return nil, ErrNoImagery
	}

	obs := make([]indices.Observation, 0, len(out.Observations))
	for i, o := range out.Observations {
		date, err := parseDate(o.Date)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		var bands indices.BandSet
		if out.DigitalNumbers {
			bands, err = indices.FromDigitalNumbers(o.Bands, c.scale)
		} else {
			bands, err = indices.NewBandSet(o.Bands)
		}
		if err != nil {
			return nil, fmt.Errorf("observation %s: %w", o.Date, err)
		}
		obs = append(obs, indices.Observation{Date: date, Bands: bands, CloudCover: o.CloudCover})
	}
	return obs, nil
}

// MeanIndices returns the provider's composite index values. Unknown index
// names and null values are dropped.
func (c *Client) MeanIndices(ctx context.Context, q Query) (indices.Set, error) {
	var out meanResp
	if err := c.post(ctx, "/mean-indices", q, &out); err != nil {
		return nil, err
	}
	set := make(indices.Set, len(out.Indices))
	for k, v := range out.Indices {
		name, ok := indices.ParseName(k)
		if !ok || v == nil {
			continue
		}
		set[name] = *v
	}
	if len(set) == 0 {
		return nil, ErrNoImagery
	}
	return set, nil
}

func (c *Client) Weather(ctx context.Context, q Query) ([]weather.Day, error) {
	var out weatherResp
	if err := c.post(ctx, "/weather", q, &out); err != nil {
		return nil, err
	}
	days := make([]weather.Day, 0, len(out.Days))
	for i, d := range out.Days {
		date, err := parseDate(d.Date)
		if err != nil {
			return nil, fmt.Errorf("weather day %d: %w", i, err)
		}
		days = append(days, weather.Day{
			Date:            date,
			TemperatureC:    d.TemperatureC,
			TempMaxC:        d.TempMaxC,
			TempMinC:        d.TempMinC,
			PrecipitationMM: d.PrecipitationMM,
			HumidityPct:     d.HumidityPct,
		})
	}
	return days, nil
}

func (c *Client) post(ctx context.Context, path string, q Query, out any) error {
	if err := q.Validate(); err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(queryReq{
			Geometry:      q.Geometry,
			StartDate:     q.Start.Format(time.DateOnly),
			EndDate:       q.End.Format(time.DateOnly),
			MaxCloudCover: q.MaxCloudCover,
		}).
		Post(path)
	if err != nil {
		return fmt.Errorf("processor %s: %w", path, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return ErrNoImagery
	case resp.IsError():
		return fmt.Errorf("processor %s returned status %d: %s", path, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode processor %s: %w", path, err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", indices.ErrInvalidInput, s)
	}
	return t, nil
}
