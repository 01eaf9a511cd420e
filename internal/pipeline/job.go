package pipeline

import (
	"github.com/nao1215/plantdoc/internal/acquire"
	"github.com/nao1215/plantdoc/internal/report"
	"github.com/nao1215/plantdoc/internal/session"
)

// Job is one image (or one demo run) travelling through a pipeline.
type Job struct {
	// Source is the image path. Empty means the demo path.
	Source string

	// DemoKey selects the demo sample. Empty picks one at random.
	DemoKey string

	// Session is the session the job is diagnosed in.
	Session *session.Session

	// Image is set by LoadStep.
	Image *acquire.Image

	// Diagnosis is set by DiagnoseStep and completed by HeatmapStep.
	Diagnosis *report.Diagnosis

	// Err is the error that stopped the pipeline, if any.
	Err error

	// PerformedSteps lists the steps that completed.
	PerformedSteps []string
}

// IsDemo reports whether the job takes the demo path.
func (j *Job) IsDemo() bool {
	return j.Source == ""
}

// SourceName returns Source, or report.SourceDemo for demo jobs.
func (j *Job) SourceName() string {
	if j.IsDemo() {
		return report.SourceDemo
	}
	return j.Source
}
