// Package indices computes vegetation, soil and water indices from surface
// reflectance. All functions are pure; an index whose denominator is zero is
// left out of the resulting Set rather than reported as an error.
package indices

import (
	"fmt"
	"math"
	"strings"
)

// Name identifies one spectral index.
type Name string

const (
	NDVI    Name = "NDVI"
	EVI     Name = "EVI"
	NDRE    Name = "NDRE"
	GNDVI   Name = "GNDVI"
	SAVI    Name = "SAVI"
	MSAVI2  Name = "MSAVI2"
	LSWI    Name = "LSWI"
	NDMI    Name = "NDMI"
	NDWI    Name = "NDWI"
	NBR     Name = "NBR"
	CIgreen Name = "CIgreen"
	CIre    Name = "CIre"
	MCARI   Name = "MCARI"
	TCARI   Name = "TCARI"
	WDRVI   Name = "WDRVI"
	LAI     Name = "LAI"
	FPAR    Name = "fPAR"
	BSI     Name = "BSI"
	NDTI    Name = "NDTI"
)

// All lists the 19 indices in their canonical order.
var All = []Name{
	NDVI, EVI, NDRE, GNDVI, SAVI, MSAVI2, LSWI, NDMI, NDWI,
	NBR, CIgreen, CIre, MCARI, TCARI, WDRVI, LAI, FPAR, BSI, NDTI,
}

const (
	// SoilFactor is the SAVI soil brightness correction L.
	SoilFactor = 0.5
	// WDRVIWeight is the NIR weighting coefficient a.
	WDRVIWeight = 0.2
)

// ParseName resolves an index name case-insensitively ("ndvi", "FPAR", ...).
func ParseName(s string) (Name, bool) {
	for _, n := range All {
		if strings.EqualFold(string(n), strings.TrimSpace(s)) {
			return n, true
		}
	}
	return "", false
}

// Set maps index names to values. A missing key means the index is undefined.
type Set map[Name]float64

// Get returns the value and whether it is defined.
func (s Set) Get(n Name) (float64, bool) {
	v, ok := s[n]
	return v, ok
}

// Or returns the value of n, or def when n is undefined.
func (s Set) Or(n Name, def float64) float64 {
	if v, ok := s[n]; ok {
		return v
	}
	return def
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ParseSet resolves raw names case-insensitively. Unknown names, names given
// twice in different case and non-finite values are rejected.
func ParseSet(raw map[string]float64) (Set, error) {
	set := make(Set, len(raw))
	for k, v := range raw {
		n, ok := ParseName(k)
		if !ok {
			return nil, fmt.Errorf("%w: unknown index %q", ErrInvalidInput, k)
		}
		if _, dup := set[n]; dup {
			return nil, fmt.Errorf("%w: index %s given more than once", ErrInvalidInput, n)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: index %s is not finite", ErrInvalidInput, n)
		}
		set[n] = v
	}
	return set, nil
}

// Canonical re-keys s under ParseSet rules.
func (s Set) Canonical() (Set, error) {
	raw := make(map[string]float64, len(s))
	for k, v := range s {
		raw[string(k)] = v
	}
	return ParseSet(raw)
}

// Compute derives all 19 indices from b. It fails only when b itself is invalid.
func Compute(b BandSet) (Set, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	var (
		n   = b.NIR
		r   = b.Red
		bl  = b.Blue
		g   = b.Green
		re1 = b.RedEdge1
		s1  = b.SWIR1
		s2  = b.SWIR2
	)
	s := make(Set, len(All))

	ndvi := ratio(n-r, n+r)
	evi := ratio(2.5*(n-r), n+6*r-7.5*bl+1)
	s.set(NDVI, ndvi)
	s.set(EVI, evi)
	s.set(NDRE, ratio(n-re1, n+re1))
	s.set(GNDVI, ratio(n-g, n+g))
	s.set(SAVI, ratio((1+SoilFactor)*(n-r), n+r+SoilFactor))
	s.set(MSAVI2, (2*n+1-math.Sqrt((2*n+1)*(2*n+1)-8*(n-r)))/2)
	s.set(LSWI, ratio(n-s1, n+s1))
	s.set(NDMI, ratio(n-s1, n+s1))
	s.set(NDWI, ratio(g-n, g+n))
	s.set(NBR, ratio(n-s2, n+s2))
	s.set(CIgreen, ratio(n, g)-1)
	s.set(CIre, ratio(n, re1)-1)

	// Both chlorophyll absorption indices scale by RE1/RED.
	q := ratio(re1, r)
	s.set(MCARI, ((re1-r)-0.2*(re1-g))*q)
	s.set(TCARI, 3*((re1-r)-0.2*(re1-g)*q))

	s.set(WDRVI, ratio(WDRVIWeight*n-r, WDRVIWeight*n+r))
	s.set(LAI, 3.618*evi-0.118)
	if !math.IsNaN(ndvi) {
		s.set(FPAR, clamp(1.24*ndvi-0.168, 0, 1))
	}
	s.set(BSI, ratio(s1+r-n-bl, s1+r+n+bl))
	s.set(NDTI, ratio(s1-s2, s1+s2))
	return s, nil
}

// set stores v unless it is NaN or infinite; undefined inputs propagate as NaN.
func (s Set) set(name Name, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s[name] = v
}

// ratio divides num by den. An exactly zero denominator yields NaN.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
