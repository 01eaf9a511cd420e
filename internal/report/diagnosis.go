package report

import (
	"time"

	"github.com/nao1215/plantdoc/internal/model"
	"github.com/nao1215/plantdoc/internal/session"
)

// SourceDemo is the Source of a diagnosis produced by the demo path.
const SourceDemo = "demo"

// Diagnosis is one settled session, ready to be written.
type Diagnosis struct {
	// Source is the input file path, or SourceDemo.
	Source string `json:"source"`

	// DiagnosedAt is when the record was produced.
	DiagnosedAt time.Time `json:"diagnosed_at"`

	// Record is the diagnosis itself.
	Record model.DiagnosticRecord `json:"record"`

	// LowConfidence mirrors Record.LowConfidence for JSON consumers.
	LowConfidence bool `json:"low_confidence"`

	// Image is nil on the demo path.
	Image *model.ImageRef `json:"image,omitempty"`

	// Heatmap is set when the explainability overlay arrived in time.
	Heatmap *model.HeatmapRef `json:"heatmap,omitempty"`

	// HeatmapFile is where the overlay was saved, if it was.
	HeatmapFile string `json:"heatmap_file,omitempty"`

	// DemoEmoji marks demo records.
	DemoEmoji string `json:"demo_emoji,omitempty"`

	// Error is set when the session produced no record, e.g. when the
	// image could not be read.
	Error string `json:"error,omitempty"`
}

// FromSnapshot builds a Diagnosis from a session in the Result state.
// It returns nil when the snapshot carries no record.
func FromSnapshot(source string, snap session.Snapshot, at time.Time) *Diagnosis {
	if snap.Record == nil {
		return nil
	}
	return &Diagnosis{
		Source:        source,
		DiagnosedAt:   at,
		Record:        snap.Record.Clone(),
		LowConfidence: snap.Record.LowConfidence(),
		Image:         snap.Image,
		Heatmap:       snap.Heatmap,
		DemoEmoji:     snap.DemoEmoji,
	}
}

// Failed builds a Diagnosis for an input that never reached a session.
func Failed(source string, err error, at time.Time) *Diagnosis {
	return &Diagnosis{Source: source, DiagnosedAt: at, Error: err.Error()}
}

// Title returns the record title prefixed with the demo emoji, if any.
func (d *Diagnosis) Title() string {
	if d.DemoEmoji == "" {
		return d.Record.Title
	}
	return d.DemoEmoji + " " + d.Record.Title
}

// Summary counts diagnoses per status.
type Summary struct {
	Total   int `json:"total"`
	Healthy int `json:"healthy"`
	Warning int `json:"warning"`
	Danger  int `json:"danger"`
	Failed  int `json:"failed"`
}

// Summarize counts ds by status. Nil entries are skipped.
func Summarize(ds []*Diagnosis) Summary {
	var s Summary
	for _, d := range ds {
		if d == nil {
			continue
		}
		s.Total++
		if d.Error != "" {
			s.Failed++
			continue
		}
		switch d.Record.Status {
		case model.StatusHealthy:
			s.Healthy++
		case model.StatusDanger:
			s.Danger++
		default:
			s.Warning++
		}
	}
	return s
}
