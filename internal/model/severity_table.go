package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrHealthyDefault is returned when an override tries to rank an unknown
// class as healthy.
var ErrHealthyDefault = errors.New("invalid severity override: the default arm cannot be healthy")

// DefaultClassKey is the override key that targets the default arm of a
// SeverityTable.
const DefaultClassKey = "*"

// builtinSeverities lists the classes the diagnosis backend is trained on.
var builtinSeverities = map[string]Status{
	"Tomato_healthy":      StatusHealthy,
	"Potato_healthy":      StatusHealthy,
	"Tomato_Late_blight":  StatusDanger,
	"Potato_Late_blight":  StatusDanger,
	"Tomato_Early_blight": StatusWarning,
	"Tomato_Leaf_Mold":    StatusWarning,
}

// SeverityTable maps backend class labels to a Status. Lookup is total:
// any label without an entry resolves to the default arm.
//
// A SeverityTable is immutable after construction and safe for concurrent
// use.
type SeverityTable struct {
	entries  map[string]Status
	fallback Status
}

// NewSeverityTable returns the built-in table with StatusWarning as the
// default arm.
func NewSeverityTable() *SeverityTable {
	return &SeverityTable{
		entries:  maps.Clone(builtinSeverities),
		fallback: StatusWarning,
	}
}

// WithOverrides returns a copy of the table with the given class to status
// overrides applied. The DefaultClassKey key replaces the default arm, which
// may be warning or danger but never healthy.
func (t *SeverityTable) WithOverrides(overrides map[string]Status) (*SeverityTable, error) {
	merged := &SeverityTable{
		entries:  maps.Clone(t.entries),
		fallback: t.fallback,
	}
	for class, status := range overrides {
		if class == DefaultClassKey {
			if status == StatusHealthy {
				return nil, ErrHealthyDefault
			}
			merged.fallback = status
			continue
		}
		if class == "" {
			return nil, fmt.Errorf("invalid severity override: empty class name for %s", status)
		}
		merged.entries[class] = status
	}
	return merged, nil
}

// Lookup returns the status for class, or the default arm when the class
// is not known.
func (t *SeverityTable) Lookup(class string) Status {
	if status, ok := t.entries[class]; ok {
		return status
	}
	return t.fallback
}

// Known reports whether class has an explicit entry.
func (t *SeverityTable) Known(class string) bool {
	_, ok := t.entries[class]
	return ok
}

// Default returns the status used for unknown classes.
func (t *SeverityTable) Default() Status {
	return t.fallback
}

// Classes returns the known class labels in sorted order.
func (t *SeverityTable) Classes() []string {
	return slices.Sorted(maps.Keys(t.entries))
}
