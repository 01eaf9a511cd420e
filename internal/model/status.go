package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus is returned when a status string is not one of
// healthy, warning or danger.
var ErrUnknownStatus = errors.New("unknown status: expected healthy, warning or danger")

// Status is the severity tier of a diagnosis, the dominant signal shown to
// the user.
//
// Design decision: StatusWarning is the zero value. A record built without
// an explicit status therefore leans toward caution instead of reporting a
// plant as healthy.
type Status int

const (
	// StatusWarning indicates a recognized disease that needs attention,
	// or a class we do not know how to rank.
	StatusWarning Status = iota

	// StatusHealthy indicates a healthy-family class.
	StatusHealthy

	// StatusDanger indicates a destructive disease, an uncertain result,
	// or a backend that could not be reached.
	StatusDanger
)

// String returns the wire representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusWarning:
		return "warning"
	case StatusDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// Badge returns a short human-readable label with an emoji marker.
func (s Status) Badge() string {
	switch s {
	case StatusHealthy:
		return "🟢 healthy"
	case StatusDanger:
		return "🔴 danger"
	default:
		return "🟠 warning"
	}
}

// ParseStatus converts a status string (case-insensitive) to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "healthy":
		return StatusHealthy, nil
	case "warning":
		return StatusWarning, nil
	case "danger":
		return StatusDanger, nil
	default:
		return StatusWarning, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// MarshalText implements encoding.TextMarshaler so that JSON and YAML
// output use the string form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
