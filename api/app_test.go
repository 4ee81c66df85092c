package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"cropsight/api/models"
	"cropsight/internal/crops"
	"cropsight/internal/engine"
	"cropsight/internal/imagery"
	"cropsight/internal/indices"
	"cropsight/internal/weather"
)

const testSecret = "test-secret"

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Observations(ctx context.Context, q imagery.Query) ([]indices.Observation, error) {
	args := m.Called(ctx, q)
	obs, _ := args.Get(0).([]indices.Observation)
	return obs, args.Error(1)
}

func (m *mockProvider) MeanIndices(ctx context.Context, q imagery.Query) (indices.Set, error) {
	args := m.Called(ctx, q)
	set, _ := args.Get(0).(indices.Set)
	return set, args.Error(1)
}

func (m *mockProvider) Weather(ctx context.Context, q imagery.Query) ([]weather.Day, error) {
	args := m.Called(ctx, q)
	days, _ := args.Get(0).([]weather.Day)
	return days, args.Error(1)
}

// memStore is an in-memory analysisStore.
type memStore struct {
	mu    sync.Mutex
	items []models.Analysis
}

func (s *memStore) Find(_ context.Context, l analysisLookup) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.items) - 1; i >= 0; i-- {
		an := s.items[i]
		if an.OwnerID == l.OwnerID && an.FieldID == l.FieldID && an.Key == l.Key &&
			an.AreaHa == l.AreaHa && an.DaysSinceSowing == l.DaysSinceSowing && an.MaxCloudCover == l.MaxCloudCover {
			return &an, nil
		}
	}
	return nil, nil
}

func (s *memStore) Insert(_ context.Context, an models.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, an)
	return nil
}

func (s *memStore) List(_ context.Context, owner, field primitive.ObjectID, limit int64) ([]models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Analysis{}
	for _, an := range s.items {
		if an.OwnerID == owner && an.FieldID == field {
			out = append(out, an)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Latest(ctx context.Context, owner, field primitive.ObjectID) (*models.Analysis, error) {
	out, _ := s.List(ctx, owner, field, 1)
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func newTestApp(t *testing.T, p imagery.Provider) (*App, *memStore) {
	t.Helper()
	store := &memStore{}
	return &App{
		cfg: Config{
			JWTSecret:        testSecret,
			MaxCloudCover:    20,
			AnalysisTimeout:  5 * time.Second,
			BatchParallelism: 2,
			CacheEnabled:     true,
		},
		log:      zap.NewNop(),
		metrics:  newMetrics(),
		crops:    crops.Default(),
		engine:   engine.New(nil),
		imagery:  p,
		analyses: store,
	}, store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
