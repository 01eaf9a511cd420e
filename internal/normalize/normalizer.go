package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nao1215/plantdoc/internal/backend"
	"github.com/nao1215/plantdoc/internal/locale"
	"github.com/nao1215/plantdoc/internal/model"
)

// ErrHeatmapUnavailable is returned when the explain envelope does not
// carry a usable heatmap.
var ErrHeatmapUnavailable = errors.New("heatmap unavailable")

// Normalizer maps backend envelopes to DiagnosticRecords. It never returns
// a record with an unset status, title, confidence or predictions.
//
// Design decision: Every path that is not a clean success resolves to
// danger. Telling a grower that a diseased plant is healthy costs more than
// a false alarm, so the mapping leans toward caution.
type Normalizer struct {
	table    *model.SeverityTable
	messages locale.Messages
	newID    func() string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithIDGenerator replaces the record ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) {
		if gen != nil {
			n.newID = gen
		}
	}
}

// New creates a Normalizer. A nil table uses model.NewSeverityTable.
func New(table *model.SeverityTable, messages locale.Messages, opts ...Option) *Normalizer {
	if table == nil {
		table = model.NewSeverityTable()
	}
	n := &Normalizer{
		table:    table,
		messages: messages,
		newID:    newRecordID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// newRecordID returns a time-ordered UUIDv7, falling back to a random v4
// if the clock source fails.
func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// FromPredict maps a predict envelope. Error and uncertain envelopes, and
// success envelopes without a primary class, become a cautionary record.
func (n *Normalizer) FromPredict(resp *backend.PredictResponse) model.DiagnosticRecord {
	if resp == nil {
		return n.uncertain("", 0, nil)
	}

	switch {
	case resp.Status == backend.StatusFailed, resp.Status == backend.StatusUncertain:
		return n.uncertain(resp.Message, resp.Confidence, resp.TopPredictions)
	case strings.TrimSpace(resp.PrimaryDiagnosis) == "":
		return n.uncertain(resp.Message, resp.Confidence, resp.TopPredictions)
	default:
		return n.success(resp)
	}
}

// Unreachable synthesizes the record for a primary call that failed at the
// transport level. err is only used by callers for logging.
func (n *Normalizer) Unreachable(_ error) model.DiagnosticRecord {
	return model.DiagnosticRecord{
		ID:          n.newID(),
		Status:      model.StatusDanger,
		Title:       n.messages.Connectivity,
		Description: model.TextDescription(n.messages.Unreachable),
		Confidence:  0,
		Predictions: []model.Prediction{},
	}
}

// Heatmap decodes the overlay of an explain envelope.
func (n *Normalizer) Heatmap(resp *backend.ExplainResponse) (*model.HeatmapRef, error) {
	if resp == nil || resp.Status != backend.StatusSuccess {
		return nil, ErrHeatmapUnavailable
	}
	if resp.HeatmapBase64 == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrHeatmapUnavailable)
	}
	h, err := model.ParseHeatmapDataURL(resp.HeatmapBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHeatmapUnavailable, err)
	}
	return h, nil
}

// Messages returns the message table in use.
func (n *Normalizer) Messages() locale.Messages {
	return n.messages
}

func (n *Normalizer) uncertain(message string, confidence float64, ranked []backend.ClassConfidence) model.DiagnosticRecord {
	description := strings.TrimSpace(message)
	if description == "" {
		description = n.messages.RetakePhoto
	}
	return model.DiagnosticRecord{
		ID:          n.newID(),
		Status:      model.StatusDanger,
		Title:       n.messages.Uncertain,
		Description: model.TextDescription(description),
		Confidence:  model.ClampPercent(confidence),
		Predictions: predictions(ranked),
	}
}

func (n *Normalizer) success(resp *backend.PredictResponse) model.DiagnosticRecord {
	description := resp.Advice
	if len(description.Items()) == 0 {
		description = model.ListDescription(n.messages.NoAdvice)
	}
	return model.DiagnosticRecord{
		ID:          n.newID(),
		Status:      n.table.Lookup(resp.PrimaryDiagnosis),
		Title:       HumanizeClass(resp.PrimaryDiagnosis),
		Description: description,
		Confidence:  model.ClampPercent(resp.Confidence),
		Predictions: predictions(resp.Top3Predictions),
	}
}

// predictions converts ranked classes, dropping entries without a class
// name. The result is never nil.
func predictions(ranked []backend.ClassConfidence) []model.Prediction {
	out := make([]model.Prediction, 0, len(ranked))
	for _, p := range ranked {
		name := HumanizeClass(p.Class)
		if name == "" {
			continue
		}
		out = append(out, model.Prediction{
			Name:        name,
			Probability: model.ClampPercent(p.Confidence),
		})
	}
	model.SortPredictions(out)
	return out
}

// HumanizeClass renders a backend class label for display:
// "Tomato_Late_blight" becomes "Tomato Late blight".
func HumanizeClass(class string) string {
	return strings.TrimSpace(strings.ReplaceAll(class, "_", " "))
}
