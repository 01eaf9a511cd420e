package model

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"
)

// LowConfidenceThreshold is the confidence below which a record is flagged
// as low confidence in reports.
const LowConfidenceThreshold = 60.0

// Prediction is one ranked alternative class.
type Prediction struct {
	// Name is the human-readable class name.
	Name string `json:"name" yaml:"name"`

	// Probability is a percentage in [0,100].
	Probability float64 `json:"probability" yaml:"probability"`
}

// Description is either a single explanatory text or an ordered list of
// advice items. The zero value is an empty single text.
//
// Design decision: We keep both shapes instead of flattening a list into
// one string because the order and separation of advice items is meaningful
// to the reader and must survive into every report format.
type Description struct {
	text  string
	items []string
}

// TextDescription returns a Description holding a single text.
func TextDescription(text string) Description {
	return Description{text: text}
}

// ListDescription returns a Description holding an ordered list of items.
// The slice is copied.
func ListDescription(items ...string) Description {
	copied := make([]string, len(items))
	copy(copied, items)
	return Description{items: copied}
}

// IsList reports whether the description is a list of advice items.
func (d Description) IsList() bool {
	return d.items != nil
}

// Text returns the single text, or the items joined by a space for a list.
func (d Description) Text() string {
	if d.IsList() {
		return strings.Join(d.items, " ")
	}
	return d.text
}

// Items returns the advice items. A single text is returned as a one item
// list unless it is empty.
func (d Description) Items() []string {
	if d.IsList() {
		copied := make([]string, len(d.items))
		copy(copied, d.items)
		return copied
	}
	if d.text == "" {
		return []string{}
	}
	return []string{d.text}
}

// IsEmpty reports whether the description carries no content.
func (d Description) IsEmpty() bool {
	return d.text == "" && len(d.items) == 0
}

// MarshalJSON encodes a text as a JSON string and a list as a JSON array.
func (d Description) MarshalJSON() ([]byte, error) {
	if d.IsList() {
		return json.Marshal(d.items)
	}
	return json.Marshal(d.text)
}

// UnmarshalJSON accepts either a JSON string or an array. null leaves the
// description empty. Array elements are read leniently: numbers and
// booleans keep their literal text, while nulls and nested values are
// skipped.
func (d *Description) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Description{}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		items := make([]string, 0, len(raw))
		for _, elem := range raw {
			if item, ok := adviceItem(elem); ok {
				items = append(items, item)
			}
		}
		*d = ListDescription(items...)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*d = TextDescription(text)
	return nil
}

// adviceItem turns one array element into text.
func adviceItem(elem json.RawMessage) (string, bool) {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 {
		return "", false
	}
	switch elem[0] {
	case '"':
		var text string
		if err := json.Unmarshal(elem, &text); err != nil {
			return "", false
		}
		return text, true
	case 'n', '{', '[':
		return "", false
	default:
		return string(elem), true
	}
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (d *Description) UnmarshalYAML(unmarshal func(any) error) error {
	var items []string
	if err := unmarshal(&items); err == nil {
		*d = ListDescription(items...)
		return nil
	}
	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}
	*d = TextDescription(text)
	return nil
}

// DiagnosticRecord is the canonical output of a diagnostic session.
// Status, Title, Confidence and Predictions are always populated; a record
// produced from a malformed backend response carries sentinel values, never
// missing ones.
type DiagnosticRecord struct {
	// ID is an opaque identifier, unique per backend-derived record.
	// Demo records carry their catalog key.
	ID string `json:"id" yaml:"id"`

	// Status is the severity tier.
	Status Status `json:"status" yaml:"status"`

	// Title is the human-readable diagnosis label.
	Title string `json:"title" yaml:"title"`

	// Description is the explanation or the advice list.
	Description Description `json:"description" yaml:"description"`

	// Confidence is a percentage in [0,100]. 0 means unknown.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Predictions are ranked highest probability first.
	Predictions []Prediction `json:"predictions" yaml:"predictions"`
}

// LowConfidence reports whether the confidence is below
// LowConfidenceThreshold.
func (r DiagnosticRecord) LowConfidence() bool {
	return r.Confidence < LowConfidenceThreshold
}

// Clone returns a deep copy of the record.
func (r DiagnosticRecord) Clone() DiagnosticRecord {
	clone := r
	clone.Predictions = make([]Prediction, len(r.Predictions))
	copy(clone.Predictions, r.Predictions)
	if r.Description.IsList() {
		clone.Description = ListDescription(r.Description.items...)
	}
	return clone
}

// ClampPercent bounds v to [0,100]. NaN maps to 0.
func ClampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// SortPredictions orders predictions by probability, highest first.
// Ties keep their original order.
func SortPredictions(predictions []Prediction) {
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Probability > predictions[j].Probability
	})
}
