package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/nao1215/plantdoc/internal/locale"
	"github.com/nao1215/plantdoc/internal/model"
	"github.com/nao1215/plantdoc/internal/session"
)

var testTime = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

// createLateBlight creates a backend-derived diagnosis with an image.
func createLateBlight() *Diagnosis {
	return &Diagnosis{
		Source:      "garden/leaf.jpg",
		DiagnosedAt: testTime,
		Record: model.DiagnosticRecord{
			ID:          "0190f5c2-0000-7000-8000-000000000001",
			Status:      model.StatusDanger,
			Title:       "Tomato Late blight",
			Description: model.ListDescription("Isolate the plant", "Remove infected leaves"),
			Confidence:  88,
			Predictions: []model.Prediction{
				{Name: "Tomato Late blight", Probability: 88},
				{Name: "Nitrogen deficiency", Probability: 10},
				{Name: "Other", Probability: 2},
			},
		},
		Image: &model.ImageRef{
			URL:         "blob:plantdoc/1",
			Name:        "leaf.jpg",
			ContentType: "image/jpeg",
			Size:        2048,
			Fingerprint: "deadbeef",
			Metadata: &model.ImageMetadata{
				CameraMake:  "Canon",
				CameraModel: "EOS 80D",
				CapturedAt:  time.Date(2026, 4, 30, 18, 0, 0, 0, time.UTC),
				HasGPS:      true,
			},
		},
		HeatmapFile: "leaf.heatmap.jpg",
	}
}

// createLowConfidenceDemo creates a demo diagnosis under the threshold.
func createLowConfidenceDemo() *Diagnosis {
	return &Diagnosis{
		Source:      SourceDemo,
		DiagnosedAt: testTime,
		Record: model.DiagnosticRecord{
			ID:          "tache",
			Status:      model.StatusWarning,
			Title:       "Tache foliaire",
			Description: model.TextDescription("Observez attentivement."),
			Confidence:  55,
			Predictions: []model.Prediction{
				{Name: "Tache foliaire", Probability: 55},
				{Name: "Brûlure solaire", Probability: 30},
				{Name: "Mildiou", Probability: 15},
			},
		},
		LowConfidence: true,
		DemoEmoji:     "🍁",
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createLateBlight()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"PLANTDOC DIAGNOSIS",
			"garden/leaf.jpg",
			"🔴 danger",
			"Tomato Late blight",
			"88%",
			"  - Isolate the plant",
			"PREDICTIONS",
			"Nitrogen deficiency",
			"saved to leaf.heatmap.jpg",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if strings.Contains(output, "Low confidence") {
			t.Error("88% should not carry the low-confidence badge")
		}
		if strings.Contains(output, "IMAGE") {
			t.Error("image details are verbose only")
		}
	})

	t.Run("low confidence demo uses localized badge and emoji", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithMessages(locale.For(language.French)))
		if _, err := w.Write(createLowConfidenceDemo()); err != nil {
			t.Fatal(err)
		}

		output := buf.String()
		if !strings.Contains(output, "⚠️ Confiance faible") {
			t.Error("expected the French low-confidence badge")
		}
		if !strings.Contains(output, "🍁 Tache foliaire") {
			t.Error("expected the demo emoji before the title")
		}
		if !strings.Contains(output, "  Observez attentivement.") {
			t.Error("expected text description")
		}
	})

	t.Run("verbose adds image details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createLateBlight()); err != nil {
			t.Fatal(err)
		}

		output := buf.String()
		for _, want := range []string{"IMAGE", "Canon EOS 80D", "GPS:         present", "deadbeef", "Record ID:"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected verbose output to contain %q", want)
			}
		}
	})

	t.Run("batch writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ds := []*Diagnosis{
			createLateBlight(),
			nil,
			createLowConfidenceDemo(),
			Failed("broken.txt", errors.New("not an image"), testTime),
		}
		if _, err := NewSimpleWriter(&buf).WriteBatch(ds); err != nil {
			t.Fatal(err)
		}

		output := buf.String()
		if strings.Count(output, "PLANTDOC DIAGNOSIS") != 3 {
			t.Errorf("expected three diagnoses\n%s", output)
		}
		for _, want := range []string{"SUMMARY", "DANGER:   1", "WARNING:  1", "FAILED:   1", "TOTAL:    3 images", "not an image"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("single diagnosis", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createLateBlight()); err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		record, _ := decoded["record"].(map[string]any)
		if record["status"] != "danger" {
			t.Errorf("status = %v", record["status"])
		}
		if desc, ok := record["description"].([]any); !ok || len(desc) != 2 {
			t.Errorf("description = %v", record["description"])
		}
		if decoded["low_confidence"] != false {
			t.Errorf("low_confidence = %v", decoded["low_confidence"])
		}
		if decoded["heatmap_file"] != "leaf.heatmap.jpg" {
			t.Errorf("heatmap_file = %v", decoded["heatmap_file"])
		}
	})

	t.Run("batch with version and pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("v1.2.3"))
		if _, err := w.WriteBatch([]*Diagnosis{createLateBlight(), createLowConfidenceDemo()}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"version\": \"v1.2.3\"") {
			t.Errorf("expected indented version field\n%s", buf.String())
		}

		var decoded BatchReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Summary.Total != 2 || decoded.Summary.Danger != 1 || decoded.Summary.Warning != 1 {
			t.Errorf("summary = %+v", decoded.Summary)
		}
		if len(decoded.Diagnoses) != 2 || decoded.Diagnoses[1].DemoEmoji != "🍁" {
			t.Errorf("diagnoses = %+v", decoded.Diagnoses)
		}
		if decoded.Diagnoses[1].Record.Description.Text() != "Observez attentivement." {
			t.Errorf("description = %+v", decoded.Diagnoses[1].Record.Description)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables alerts and pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createLateBlight()); err != nil {
			t.Fatal(err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Plant Diagnosis Report",
			"## garden/leaf.jpg",
			"Tomato Late blight",
			"[!CAUTION]",
			"- Isolate the plant",
			"```mermaid",
			"pie",
			"Nitrogen deficiency",
			"Canon EOS 80D",
			"`leaf.heatmap.jpg`",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected markdown to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("low confidence adds important alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, WithMarkdownMessages(locale.For(language.French)))
		if _, err := w.Write(createLowConfidenceDemo()); err != nil {
			t.Fatal(err)
		}

		output := buf.String()
		for _, want := range []string{"[!WARNING]", "[!IMPORTANT]", "⚠️ Confiance faible", "🍁 Tache foliaire"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected markdown to contain %q", want)
			}
		}
	})

	t.Run("batch writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ds := []*Diagnosis{createLateBlight(), Failed("x.gif", errors.New("boom"), testTime)}
		if _, err := NewMarkdownWriter(&buf).WriteBatch(ds); err != nil {
			t.Fatal(err)
		}

		output := buf.String()
		for _, want := range []string{"## Summary", "🔴 Danger", "❌ Failed", "Could not diagnose this image: boom"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected markdown to contain %q", want)
			}
		}
	})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	n, err := mw.Write(createLateBlight())
	if err != nil {
		t.Fatal(err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("bytes = %d, want %d", n, text.Len()+js.Len())
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

func TestFromSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("no record yields nil", func(t *testing.T) {
		t.Parallel()
		if d := FromSnapshot("leaf.jpg", session.Snapshot{State: model.StateUpload}, testTime); d != nil {
			t.Errorf("expected nil, got %+v", d)
		}
	})

	t.Run("copies record and markers", func(t *testing.T) {
		t.Parallel()
		rec := createLowConfidenceDemo().Record
		snap := session.Snapshot{
			State:     model.StateResult,
			Record:    &rec,
			DemoEmoji: "🍁",
			Heatmap:   &model.HeatmapRef{MediaType: "image/jpeg"},
		}

		d := FromSnapshot(SourceDemo, snap, testTime)
		if d == nil {
			t.Fatal("expected diagnosis")
		}
		if !d.LowConfidence || d.DemoEmoji != "🍁" || d.Heatmap == nil {
			t.Errorf("unexpected diagnosis: %+v", d)
		}

		rec.Predictions[0].Name = "mutated"
		if d.Record.Predictions[0].Name == "mutated" {
			t.Error("FromSnapshot must copy the record")
		}
	})
}
