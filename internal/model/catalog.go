package model

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrEmptyCatalog is returned when a catalog is built without samples.
var ErrEmptyCatalog = errors.New("demo catalog must contain at least one sample")

// DemoSample is one canned result of the demonstration path.
type DemoSample struct {
	// Key identifies the sample, and is also the ID of its record.
	Key string `yaml:"key"`

	// Label is the gallery caption.
	Label string `yaml:"label"`

	// Emoji stands in for the leaf picture while a demo scan runs.
	Emoji string `yaml:"emoji"`

	// Record is the canned diagnosis.
	Record DiagnosticRecord `yaml:"record"`
}

// Catalog is an immutable, ordered table of demo samples. It is injected
// into a session rather than read from package state, so tests can supply
// their own.
type Catalog struct {
	samples []DemoSample
}

// NewCatalog builds a catalog from samples. Each record's ID is forced to
// its sample key, and duplicate keys are rejected.
func NewCatalog(samples ...DemoSample) (*Catalog, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyCatalog
	}
	seen := make(map[string]bool, len(samples))
	copied := make([]DemoSample, len(samples))
	for i, s := range samples {
		if s.Key == "" {
			return nil, fmt.Errorf("demo sample %d has an empty key", i)
		}
		if seen[s.Key] {
			return nil, fmt.Errorf("duplicate demo sample key %q", s.Key)
		}
		seen[s.Key] = true
		s.Record = s.Record.Clone()
		s.Record.ID = s.Key
		s.Record.Confidence = ClampPercent(s.Record.Confidence)
		SortPredictions(s.Record.Predictions)
		copied[i] = s
	}
	return &Catalog{samples: copied}, nil
}

// MustCatalog is like NewCatalog but panics on error. It is meant for
// built-in tables.
func MustCatalog(samples ...DemoSample) *Catalog {
	c, err := NewCatalog(samples...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of samples.
func (c *Catalog) Len() int {
	return len(c.samples)
}

// Samples returns a copy of the samples in catalog order.
func (c *Catalog) Samples() []DemoSample {
	out := make([]DemoSample, len(c.samples))
	for i, s := range c.samples {
		s.Record = s.Record.Clone()
		out[i] = s
	}
	return out
}

// Sample returns the sample with the given key. An unknown key falls back
// to the first sample; ok reports whether the key matched.
func (c *Catalog) Sample(key string) (sample DemoSample, ok bool) {
	for _, s := range c.samples {
		if s.Key == key {
			s.Record = s.Record.Clone()
			return s, true
		}
	}
	first := c.samples[0]
	first.Record = first.Record.Clone()
	return first, false
}

// Random returns a uniformly chosen sample. A nil r uses the global source.
func (c *Catalog) Random(r *rand.Rand) DemoSample {
	var i int
	if r == nil {
		i = rand.IntN(len(c.samples)) //nolint:gosec // demo selection, not security sensitive
	} else {
		i = r.IntN(len(c.samples))
	}
	s := c.samples[i]
	s.Record = s.Record.Clone()
	return s
}
