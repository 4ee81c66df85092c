// Package crops holds the read-only crop parameter table shared by the yield
// and carbon models. A Table is never mutated after it is built.
package crops

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed crops.yaml
var embedded []byte

// YieldParams is the linear yield model of one crop, in t/ha.
type YieldParams struct {
	Base float64 `yaml:"base" json:"base"`
	Max  float64 `yaml:"max"  json:"max"`
	NDVI float64 `yaml:"ndvi" json:"ndvi"`
	EVI  float64 `yaml:"evi"  json:"evi"`
	LAI  float64 `yaml:"lai"  json:"lai"`
}

// Params are the parameters resolved for one crop.
type Params struct {
	Name       string      `yaml:"-"           json:"name"`
	Yield      YieldParams `yaml:"yield"       json:"yield"`
	CarbonRate float64     `yaml:"carbon_rate" json:"carbon_rate"` // tC/ha/yr
}

type document struct {
	Default string            `yaml:"default"`
	Crops   map[string]Params `yaml:"crops"`
}

// Table maps normalized crop names to parameters and always has a default entry.
type Table struct {
	def   string
	crops map[string]Params
}

// Parse builds a Table from YAML.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse crop table: %w", err)
	}
	t := &Table{def: normalize(doc.Default), crops: make(map[string]Params, len(doc.Crops))}
	for name, p := range doc.Crops {
		key := normalize(name)
		if key == "" {
			return nil, fmt.Errorf("crop table: empty crop name")
		}
		if p.Yield.Base < 0 || p.Yield.Max < p.Yield.Base {
			return nil, fmt.Errorf("crop table: %s yield bounds [%v, %v] invalid", key, p.Yield.Base, p.Yield.Max)
		}
		if p.CarbonRate <= 0 {
			return nil, fmt.Errorf("crop table: %s carbon_rate must be positive", key)
		}
		p.Name = key
		t.crops[key] = p
	}
	if _, ok := t.crops[t.def]; !ok {
		return nil, fmt.Errorf("crop table: default crop %q has no entry", doc.Default)
	}
	return t, nil
}

// Load reads a crop table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crop table: %w", err)
	}
	return Parse(data)
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the built-in table, parsed once per process.
func Default() *Table { return defaultTable() }

// Lookup resolves a crop case-insensitively. Unknown crops resolve to the
// default entry and report false.
func (t *Table) Lookup(name string) (Params, bool) {
	if p, ok := t.crops[normalize(name)]; ok {
		return p, true
	}
	return t.crops[t.def], false
}

// DefaultName is the crop used for unknown names.
func (t *Table) DefaultName() string { return t.def }

// Names lists the known crops, sorted.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.crops))
	for k := range t.crops {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
