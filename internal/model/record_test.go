package model

import (
	"encoding/json"
	"math"
	"slices"
	"testing"
)

func TestDescription(t *testing.T) {
	t.Parallel()

	t.Run("text description", func(t *testing.T) {
		t.Parallel()
		d := TextDescription("Water regularly.")
		if d.IsList() {
			t.Error("expected a text description")
		}
		if d.Text() != "Water regularly." {
			t.Errorf("Text() = %q", d.Text())
		}
		if got := d.Items(); !slices.Equal(got, []string{"Water regularly."}) {
			t.Errorf("Items() = %v", got)
		}
	})

	t.Run("list description preserves order", func(t *testing.T) {
		t.Parallel()
		d := ListDescription("Isolate the plant", "Remove infected leaves")
		if !d.IsList() {
			t.Fatal("expected a list description")
		}
		want := []string{"Isolate the plant", "Remove infected leaves"}
		if got := d.Items(); !slices.Equal(got, want) {
			t.Errorf("Items() = %v, want %v", got, want)
		}
	})

	t.Run("list description copies its input", func(t *testing.T) {
		t.Parallel()
		items := []string{"a", "b"}
		d := ListDescription(items...)
		items[0] = "changed"
		if d.Items()[0] != "a" {
			t.Error("description shares the caller's slice")
		}
	})

	t.Run("empty text has no items", func(t *testing.T) {
		t.Parallel()
		d := TextDescription("")
		if !d.IsEmpty() {
			t.Error("expected empty")
		}
		if len(d.Items()) != 0 {
			t.Errorf("Items() = %v", d.Items())
		}
	})
}

func TestDescriptionJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantList bool
		want     []string
	}{
		{name: "string", input: `"one"`, wantList: false, want: []string{"one"}},
		{name: "array", input: `["one","two"]`, wantList: true, want: []string{"one", "two"}},
		{name: "null", input: `null`, wantList: false, want: []string{}},
		{
			name:     "array with mixed elements",
			input:    `["Water less", 3, null, true, {"k":"v"}, ["x"], "Prune"]`,
			wantList: true,
			want:     []string{"Water less", "3", "true", "Prune"},
		},
		{name: "array of nulls", input: `[null]`, wantList: true, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var d Description
			if err := json.Unmarshal([]byte(tt.input), &d); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if d.IsList() != tt.wantList {
				t.Errorf("IsList() = %v, want %v", d.IsList(), tt.wantList)
			}
			if got := d.Items(); !slices.Equal(got, tt.want) {
				t.Errorf("Items() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("rejects numbers", func(t *testing.T) {
		t.Parallel()
		var d Description
		if err := json.Unmarshal([]byte(`42`), &d); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("list encodes as array", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(ListDescription("x"))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `["x"]` {
			t.Errorf("got %s", data)
		}
	})
}

func TestClampPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"negative", -5, 0},
		{"in range", 42.5, 42.5},
		{"above hundred", 120, 100},
		{"NaN", math.NaN(), 0},
		{"infinity", math.Inf(1), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClampPercent(tt.in); got != tt.want {
				t.Errorf("ClampPercent(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortPredictions(t *testing.T) {
	t.Parallel()

	preds := []Prediction{
		{Name: "Other", Probability: 2},
		{Name: "Mildew", Probability: 88},
		{Name: "A", Probability: 10},
		{Name: "B", Probability: 10},
	}
	SortPredictions(preds)

	want := []string{"Mildew", "A", "B", "Other"}
	for i, p := range preds {
		if p.Name != want[i] {
			t.Errorf("position %d = %s, want %s", i, p.Name, want[i])
		}
	}
}

func TestDiagnosticRecordLowConfidence(t *testing.T) {
	t.Parallel()

	if !(DiagnosticRecord{Confidence: 55}).LowConfidence() {
		t.Error("55 should be low confidence")
	}
	if (DiagnosticRecord{Confidence: 60}).LowConfidence() {
		t.Error("60 should not be low confidence")
	}
}

func TestDiagnosticRecordClone(t *testing.T) {
	t.Parallel()

	orig := DiagnosticRecord{
		ID:          "x",
		Predictions: []Prediction{{Name: "a", Probability: 1}},
		Description: ListDescription("one"),
	}
	clone := orig.Clone()
	clone.Predictions[0].Name = "changed"

	if orig.Predictions[0].Name != "a" {
		t.Error("clone shares predictions with the original")
	}
}
