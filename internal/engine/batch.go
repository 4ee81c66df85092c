package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cropsight/internal/indices"
)

// AnalyzeBatch analyzes inputs with at most parallelism running at once.
// Reports keep input order. The first failure cancels the rest.
func (e *Engine) AnalyzeBatch(ctx context.Context, inputs []Input, parallelism int) ([]Report, error) {
	if parallelism <= 0 {
		parallelism = 1
	}
	out := make([]Report, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := e.Analyze(inputs[i])
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			out[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CacheKey fingerprints an analysis request. Geometry JSON is canonicalized so
// that formatting and key order do not change the key.
func CacheKey(geometry []byte, start, end time.Time, crop string, names []indices.Name) (string, error) {
	var g any
	if err := json.Unmarshal(geometry, &g); err != nil {
		return "", fmt.Errorf("%w: geometry is not valid JSON: %v", indices.ErrInvalidInput, err)
	}
	canon, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("canonical geometry: %w", err)
	}

	idx := make([]string, len(names))
	for i, n := range names {
		idx[i] = string(n)
	}
	sort.Strings(idx)

	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n%s\n%s",
		canon,
		start.UTC().Format(time.DateOnly),
		end.UTC().Format(time.DateOnly),
		strings.ToLower(strings.TrimSpace(crop)),
		strings.Join(idx, ","),
	)
	return hex.EncodeToString(h.Sum(nil)), nil
}
