package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/plantdoc/internal/report"
	"github.com/nao1215/plantdoc/internal/session"
)

// DefaultConcurrency is the number of images diagnosed at once.
const DefaultConcurrency = 4

// BatchProcessor diagnoses several images concurrently, each in its own
// session. It uses errgroup to respect the concurrency limit.
//
// Design decision: One session per image keeps the session's single
// image ownership intact. Two images never compete for one state machine.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each image.
	pipelineFactory func() *Pipeline

	// sessionFactory creates a new session for each image.
	sessionFactory func() *session.Session

	// concurrency is the maximum number of concurrent diagnoses.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	now func() time.Time
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent diagnoses.
// Non-positive values keep DefaultConcurrency.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, sessionFactory func() *session.Session, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		sessionFactory:  sessionFactory,
		concurrency:     DefaultConcurrency,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch diagnoses sources concurrently and returns one Diagnosis
// per source, in input order. An empty source runs the demo path.
//
// Failed inputs yield a Diagnosis with Error set instead of aborting the
// batch. The error return is only non-nil when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string) ([]*report.Diagnosis, error) {
	results := make([]*report.Diagnosis, len(sources))
	err := bp.ProcessBatchWithCallback(ctx, sources, func(d *report.Diagnosis, index int) {
		// Each index is written by exactly one goroutine.
		results[index] = d
	})
	return results, err
}

// ProcessBatchWithCallback diagnoses sources and calls callback for each
// completed one. The callback runs on the worker goroutine, so it must be
// safe for concurrent use if it touches shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []string,
	callback func(d *report.Diagnosis, index int),
) error {
	bp.logger.Info("starting batch diagnosis",
		"total_images", len(sources),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Sessions are closed after the workers are done so that a slow
	// explain call never holds a worker slot.
	sessions := make([]*session.Session, len(sources))
	defer func() {
		for _, sess := range sessions {
			if sess != nil {
				release(sess)
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("diagnosing image",
				"source", source,
				"index", i+1,
				"total", len(sources),
			)
			d, sess := bp.run(ctx, &Job{Source: source})
			sessions[i] = sess
			callback(d, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch diagnosis complete",
		"total_images", len(sources),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)
	return err
}

// Run diagnoses a single job in a fresh session. It returns once the
// session has settled its background work.
func (bp *BatchProcessor) Run(ctx context.Context, job *Job) *report.Diagnosis {
	d, sess := bp.run(ctx, job)
	release(sess)
	return d
}

// run diagnoses job and hands back the session, still open, for the
// caller to release.
func (bp *BatchProcessor) run(ctx context.Context, job *Job) (*report.Diagnosis, *session.Session) {
	sess := bp.sessionFactory()
	job.Session = sess

	if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
		bp.logger.Warn("diagnosis failed", "source", job.SourceName(), "error", err)
		return report.Failed(job.SourceName(), err, bp.now()), sess
	}
	return job.Diagnosis, sess
}

// release waits for the explain call and notifications of sess, then
// frees its image.
func release(sess *session.Session) {
	sess.Close()
	sess.Reset()
}
