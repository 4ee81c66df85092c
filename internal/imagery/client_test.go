package imagery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsight/internal/indices"
)

var query = Query{
	Geometry:      json.RawMessage(`{"type":"Point","coordinates":[77.2,28.6]}`),
	Start:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	End:           time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	MaxCloudCover: 20,
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestObservationsConvertsDigitalNumbers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/observations", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "2024-01-01", req["start_date"])
		assert.Equal(t, "2024-03-31", req["end_date"])
		assert.Equal(t, 20.0, req["max_cloud_cover"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"digital_numbers":true,"observations":[{"date":"2024-02-10","cloud_cover":4.5,
			"bands":{"B2":400,"B3":800,"B4":500,"B5":1500,"B6":2500,"B7":3000,"B8":4200,"B8A":4300,"B11":2000,"B12":1000}}]}`)
	})

	obs, err := c.Observations(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.InDelta(t, 0.42, obs[0].Bands.NIR, 1e-12)
	assert.InDelta(t, 0.05, obs[0].Bands.Red, 1e-12)
	require.NotNil(t, obs[0].CloudCover)
	assert.Equal(t, 4.5, *obs[0].CloudCover)
}

func TestObservationsReflectance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"observations":[{"date":"2024-02-10T10:30:00Z",
			"bands":{"blue":0.04,"green":0.08,"red":0.05,"red_edge_1":0.15,"red_edge_2":0.25,"red_edge_3":0.3,"nir":0.42,"nir_narrow":0.43,"swir1":0.2,"swir2":0.1}}]}`)
	})
	obs, err := c.Observations(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 0.42, obs[0].Bands.NIR)
	assert.Nil(t, obs[0].CloudCover)
}

func TestObservationsNoImagery(t *testing.T) {
	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"observations":[]}`)
	})
	_, err := empty.Observations(context.Background(), query)
	assert.ErrorIs(t, err, ErrNoImagery)

	missing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no scenes", http.StatusNotFound)
	})
	_, err = missing.Observations(context.Background(), query)
	assert.ErrorIs(t, err, ErrNoImagery)
}

func TestObservationsRejectsIncompleteBands(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"observations":[{"date":"2024-02-10","bands":{"B4":0.05,"B8":0.4}}]}`)
	})
	_, err := c.Observations(context.Background(), query)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)
}

func TestServerErrorIsReported(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.Weather(context.Background(), query)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoImagery)
	assert.Contains(t, err.Error(), "500")
}

func TestMeanIndices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mean-indices", r.URL.Path)
		_, _ = io.WriteString(w, `{"indices":{"ndvi":0.61,"EVI":0.4,"MCARI":null,"foo":1}}`)
	})
	set, err := c.MeanIndices(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, indices.Set{indices.NDVI: 0.61, indices.EVI: 0.4}, set)
}

func TestWeather(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		_, _ = io.WriteString(w, `{"days":[{"date":"2024-03-01","temperature_c":31.5,"precipitation_mm":2},{"date":"2024-03-02"}]}`)
	})
	days, err := c.Weather(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 31.5, *days[0].TemperatureC)
	assert.Nil(t, days[1].TemperatureC)
}

func TestQueryValidation(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
	bad := query
	bad.End = bad.Start.AddDate(0, 0, -1)
	_, err := c.Observations(context.Background(), bad)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)

	bad = query
	bad.Geometry = nil
	_, err = c.Weather(context.Background(), bad)
	assert.ErrorIs(t, err, indices.ErrInvalidInput)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	assert.NoError(t, c.Ping(context.Background()))
}

var _ Provider = (*Client)(nil)
