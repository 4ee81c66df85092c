package indices

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidInput marks malformed engine input. Every engine package wraps it,
// so callers check with errors.Is regardless of which component rejected the data.
var ErrInvalidInput = errors.New("invalid input")

// Band is a canonical reflectance band name.
type Band string

const (
	Blue      Band = "blue"
	Green     Band = "green"
	Red       Band = "red"
	RedEdge1  Band = "red_edge_1"
	RedEdge2  Band = "red_edge_2"
	RedEdge3  Band = "red_edge_3"
	NIR       Band = "nir"
	NIRNarrow Band = "nir_narrow"
	SWIR1     Band = "swir1"
	SWIR2     Band = "swir2"
)

// AllBands lists the ten bands a BandSet must carry.
var AllBands = []Band{Blue, Green, Red, RedEdge1, RedEdge2, RedEdge3, NIR, NIRNarrow, SWIR1, SWIR2}

// Sentinel-2 MSI band ids accepted as aliases.
var sentinel2 = map[string]Band{
	"B2":  Blue,
	"B3":  Green,
	"B4":  Red,
	"B5":  RedEdge1,
	"B6":  RedEdge2,
	"B7":  RedEdge3,
	"B8":  NIR,
	"B8A": NIRNarrow,
	"B11": SWIR1,
	"B12": SWIR2,
}

// BandSet holds one observation's surface reflectance, normalized to [0,1].
type BandSet struct {
	Blue      float64 `json:"blue"       bson:"blue"`
	Green     float64 `json:"green"      bson:"green"`
	Red       float64 `json:"red"        bson:"red"`
	RedEdge1  float64 `json:"red_edge_1" bson:"red_edge_1"`
	RedEdge2  float64 `json:"red_edge_2" bson:"red_edge_2"`
	RedEdge3  float64 `json:"red_edge_3" bson:"red_edge_3"`
	NIR       float64 `json:"nir"        bson:"nir"`
	NIRNarrow float64 `json:"nir_narrow" bson:"nir_narrow"`
	SWIR1     float64 `json:"swir1"      bson:"swir1"`
	SWIR2     float64 `json:"swir2"      bson:"swir2"`
}

// ParseBand resolves a canonical name or a Sentinel-2 band id (case-insensitive).
func ParseBand(s string) (Band, bool) {
	key := strings.TrimSpace(s)
	if b, ok := sentinel2[strings.ToUpper(key)]; ok {
		return b, true
	}
	lk := strings.ToLower(key)
	for _, b := range AllBands {
		if string(b) == lk {
			return b, true
		}
	}
	return "", false
}

// NewBandSet builds a BandSet from a name → reflectance mapping. Exactly the ten
// bands must be present, once each; values must lie in [0,1].
func NewBandSet(values map[string]float64) (BandSet, error) {
	if len(values) != len(AllBands) {
		return BandSet{}, fmt.Errorf("%w: expected %d bands, got %d", ErrInvalidInput, len(AllBands), len(values))
	}
	seen := make(map[Band]float64, len(values))
	// Sorted for a deterministic error message.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b, ok := ParseBand(k)
		if !ok {
			return BandSet{}, fmt.Errorf("%w: unknown band %q", ErrInvalidInput, k)
		}
		if _, dup := seen[b]; dup {
			return BandSet{}, fmt.Errorf("%w: band %s given twice", ErrInvalidInput, b)
		}
		seen[b] = values[k]
	}
	bs := BandSet{
		Blue:      seen[Blue],
		Green:     seen[Green],
		Red:       seen[Red],
		RedEdge1:  seen[RedEdge1],
		RedEdge2:  seen[RedEdge2],
		RedEdge3:  seen[RedEdge3],
		NIR:       seen[NIR],
		NIRNarrow: seen[NIRNarrow],
		SWIR1:     seen[SWIR1],
		SWIR2:     seen[SWIR2],
	}
	return bs, bs.Validate()
}

// DefaultScale is the Sentinel-2 L2A digital-number quantification value.
const DefaultScale = 10000.0

// FromDigitalNumbers divides raw digital numbers by scale (DefaultScale when
// scale <= 0) before building the BandSet.
func FromDigitalNumbers(values map[string]float64, scale float64) (BandSet, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	scaled := make(map[string]float64, len(values))
	for k, v := range values {
		scaled[k] = v / scale
	}
	return NewBandSet(scaled)
}

// Map returns the bands keyed by canonical name.
func (b BandSet) Map() map[Band]float64 {
	return map[Band]float64{
		Blue:      b.Blue,
		Green:     b.Green,
		Red:       b.Red,
		RedEdge1:  b.RedEdge1,
		RedEdge2:  b.RedEdge2,
		RedEdge3:  b.RedEdge3,
		NIR:       b.NIR,
		NIRNarrow: b.NIRNarrow,
		SWIR1:     b.SWIR1,
		SWIR2:     b.SWIR2,
	}
}

// Validate checks that every reflectance is finite and within [0,1].
func (b BandSet) Validate() error {
	m := b.Map()
	for _, name := range AllBands {
		v := m[name]
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: band %s reflectance %v outside [0,1]", ErrInvalidInput, name, v)
		}
	}
	return nil
}
