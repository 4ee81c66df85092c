// Package imagery fetches cloud-masked observations, pre-aggregated indices
// and weather for a field from the processor service.
package imagery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cropsight/internal/indices"
	"cropsight/internal/weather"
)

// ErrNoImagery means the provider has no usable scene for the query.
var ErrNoImagery = errors.New("no imagery available")

// Query selects the imagery of one field.
type Query struct {
	Geometry      json.RawMessage
	Start         time.Time
	End           time.Time
	MaxCloudCover float64
}

func (q Query) Validate() error {
	if len(q.Geometry) == 0 {
		return fmt.Errorf("%w: empty geometry", indices.ErrInvalidInput)
	}
	if q.End.Before(q.Start) {
		return fmt.Errorf("%w: end %s before start %s", indices.ErrInvalidInput, q.End.Format(time.DateOnly), q.Start.Format(time.DateOnly))
	}
	if q.MaxCloudCover < 0 || q.MaxCloudCover > 100 {
		return fmt.Errorf("%w: max cloud cover %v outside [0,100]", indices.ErrInvalidInput, q.MaxCloudCover)
	}
	return nil
}

// Provider is the imagery collaborator the analysis service depends on.
type Provider interface {
	Observations(ctx context.Context, q Query) ([]indices.Observation, error)
	MeanIndices(ctx context.Context, q Query) (indices.Set, error)
	Weather(ctx context.Context, q Query) ([]weather.Day, error)
}
