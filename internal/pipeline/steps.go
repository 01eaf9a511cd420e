package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/plantdoc/internal/acquire"
	"github.com/nao1215/plantdoc/internal/report"
)

// ErrNoSession is returned when a job reaches DiagnoseStep without a session.
var ErrNoSession = errors.New("job has no session")

// ErrNoDiagnosis is returned when a session settled without a record.
var ErrNoDiagnosis = errors.New("session produced no diagnosis")

// LoadStep reads the image file of a job. Demo jobs are skipped.
type LoadStep struct {
	opts []acquire.Option
}

// NewLoadStep creates a LoadStep passing opts to acquire.Load.
func NewLoadStep(opts ...acquire.Option) *LoadStep {
	return &LoadStep{opts: opts}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do loads job.Source into job.Image.
func (s *LoadStep) Do(_ context.Context, job *Job) error {
	if job.IsDemo() {
		return nil
	}
	img, err := acquire.Load(job.Source, s.opts...)
	if err != nil {
		return err
	}
	job.Image = img
	return nil
}

// DiagnoseStep submits the job to its session and captures the record.
type DiagnoseStep struct {
	now func() time.Time
}

// NewDiagnoseStep creates a DiagnoseStep.
func NewDiagnoseStep() *DiagnoseStep {
	return &DiagnoseStep{now: time.Now}
}

// Name returns the step name.
func (s *DiagnoseStep) Name() string {
	return "diagnose"
}

// Do runs the session. A nil image takes the demo path.
func (s *DiagnoseStep) Do(ctx context.Context, job *Job) error {
	if job.Session == nil {
		return ErrNoSession
	}

	var err error
	if job.Image == nil {
		_, err = job.Session.SubmitDemo(ctx, job.DemoKey)
	} else {
		_, err = job.Session.Submit(ctx, job.Image)
	}
	if err != nil {
		return err
	}

	d := report.FromSnapshot(job.SourceName(), job.Session.Snapshot(), s.now())
	if d == nil {
		return ErrNoDiagnosis
	}
	job.Diagnosis = d
	return nil
}

// HeatmapStep waits a bounded time for the explainability overlay and
// optionally saves it next to the other heatmaps in dir.
//
// Design decision: A missing heatmap is not an error. The explain call is
// best effort; the diagnosis stands on its own.
type HeatmapStep struct {
	wait   time.Duration
	dir    string
	logger *slog.Logger
}

// HeatmapStepOption configures a HeatmapStep.
type HeatmapStepOption func(*HeatmapStep)

// WithHeatmapDir saves heatmaps to dir.
func WithHeatmapDir(dir string) HeatmapStepOption {
	return func(s *HeatmapStep) {
		s.dir = dir
	}
}

// WithHeatmapLogger sets a custom logger for the heatmap step.
func WithHeatmapLogger(logger *slog.Logger) HeatmapStepOption {
	return func(s *HeatmapStep) {
		s.logger = logger
	}
}

// NewHeatmapStep creates a HeatmapStep waiting at most wait.
func NewHeatmapStep(wait time.Duration, opts ...HeatmapStepOption) *HeatmapStep {
	s := &HeatmapStep{
		wait:   wait,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *HeatmapStep) Name() string {
	return "heatmap"
}

// Do attaches the heatmap to job.Diagnosis when it arrives in time.
func (s *HeatmapStep) Do(ctx context.Context, job *Job) error {
	if job.IsDemo() || job.Diagnosis == nil || job.Session == nil || s.wait <= 0 {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	h, ok := job.Session.Heatmap(waitCtx)
	if !ok {
		s.logger.Debug("no heatmap within wait", "source", job.Source, "wait", s.wait)
		return nil
	}
	job.Diagnosis.Heatmap = h

	if s.dir == "" {
		return nil
	}
	base := strings.TrimSuffix(filepath.Base(job.Source), filepath.Ext(job.Source))
	path := filepath.Join(s.dir, base+".heatmap"+h.Extension())
	if err := os.WriteFile(path, h.Data, 0o600); err != nil {
		return fmt.Errorf("failed to save heatmap: %w", err)
	}
	job.Diagnosis.HeatmapFile = path
	return nil
}

// DefaultPipeline builds the load → diagnose → heatmap pipeline.
func DefaultPipeline(explainWait time.Duration, heatmapDir string, logger *slog.Logger, loadOpts ...acquire.Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := New(WithLogger(logger))
	p.AddSteps(
		NewLoadStep(loadOpts...),
		NewDiagnoseStep(),
		NewHeatmapStep(explainWait, WithHeatmapDir(heatmapDir), WithHeatmapLogger(logger)),
	)
	return p
}
