package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDataURL is returned when a heatmap is not a base64 data URL.
var ErrInvalidDataURL = errors.New("invalid data URL: expected data:<media type>;base64,<payload>")

// ImageMetadata is the subset of EXIF information shown alongside a
// diagnosis. Zero values mean the tag was absent.
type ImageMetadata struct {
	CapturedAt  time.Time `json:"captured_at,omitzero"`
	CameraMake  string    `json:"camera_make,omitempty"`
	CameraModel string    `json:"camera_model,omitempty"`
	Software    string    `json:"software,omitempty"`
	HasGPS      bool      `json:"has_gps,omitempty"`
}

// Camera returns "make model", or whichever part is present.
func (m *ImageMetadata) Camera() string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m.CameraMake + " " + m.CameraModel)
}

// ImageRef is the display reference of an accepted image. It is owned by
// exactly one session and released exactly once.
type ImageRef struct {
	// URL is the opaque local reference, e.g. blob:plantdoc/<uuid>.
	URL string `json:"url"`

	// Name is the original file name.
	Name string `json:"name"`

	// ContentType is the sniffed media type.
	ContentType string `json:"content_type"`

	// Size is the payload size in bytes.
	Size int `json:"size"`

	// Fingerprint is the hex SHA3-256 of the payload.
	Fingerprint string `json:"fingerprint"`

	// Metadata holds EXIF details when the image carried any.
	Metadata *ImageMetadata `json:"metadata,omitempty"`
}

// HeatmapRef is the explainability overlay attached after a diagnosis.
type HeatmapRef struct {
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
}

// ParseHeatmapDataURL decodes a data URL such as
// "data:image/jpeg;base64,/9j/4AAQ...". Standard and URL-safe base64 are
// both accepted.
func ParseHeatmapDataURL(dataURL string) (*HeatmapRef, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok || mediaType == "" {
		return nil, ErrInvalidDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
		}
	}
	if len(data) == 0 {
		return nil, ErrInvalidDataURL
	}
	return &HeatmapRef{MediaType: mediaType, Data: data}, nil
}

// DataURL re-encodes the overlay as a base64 data URL.
func (h *HeatmapRef) DataURL() string {
	return "data:" + h.MediaType + ";base64," + base64.StdEncoding.EncodeToString(h.Data)
}

// Extension returns a file extension matching the media type.
func (h *HeatmapRef) Extension() string {
	switch h.MediaType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
