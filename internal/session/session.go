package session

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/nao1215/plantdoc/internal/acquire"
	"github.com/nao1215/plantdoc/internal/backend"
	"github.com/nao1215/plantdoc/internal/locale"
	"github.com/nao1215/plantdoc/internal/metrics"
	"github.com/nao1215/plantdoc/internal/model"
	"github.com/nao1215/plantdoc/internal/normalize"
)

// DefaultDemoDelay is the simulated analysis time of the demo path.
const DefaultDemoDelay = 2000 * time.Millisecond

// attachmentBuffer bounds explain results waiting for the session loop.
const attachmentBuffer = 8

// subscriberBuffer is the channel capacity handed to each subscriber.
// Snapshots that do not fit are dropped for that subscriber.
const subscriberBuffer = 16

// Diagnoser is the transport a session submits images to.
// *backend.Client implements it.
type Diagnoser interface {
	Predict(ctx context.Context, img *acquire.Image) (*backend.PredictResponse, error)
	Explain(ctx context.Context, img *acquire.Image) (*backend.ExplainResponse, error)
}

// Notifier is told about every record a session settles on.
type Notifier interface {
	DiagnosisComplete(ctx context.Context, rec model.DiagnosticRecord, img *model.ImageRef) error
}

// SleepFunc waits for d or until ctx ends, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Snapshot is a read-only view of a session for presentation.
type Snapshot struct {
	State      model.SessionState
	Generation uint64
	Record     *model.DiagnosticRecord
	Image      *model.ImageRef
	Heatmap    *model.HeatmapRef
	DemoEmoji  string
}

// Session is one diagnostic session: an image goes in, exactly one
// record comes out, and an explainability heatmap may follow.
//
// Design decision: Every submission and reset bumps a generation token.
// Work started for an older generation can still finish, but its result
// is compared against the current token and dropped when they differ.
// This keeps Reset cheap (no in-flight request is aborted) while
// guaranteeing a late answer never overwrites newer state.
type Session struct {
	client     Diagnoser
	logger     *slog.Logger
	catalog    *model.Catalog
	normalizer *normalize.Normalizer
	store      ImageStore
	metrics    *metrics.Collector
	notifier   Notifier
	sleep      SleepFunc
	demoDelay  time.Duration
	rng        *rand.Rand

	// skipExplain disables the heatmap request after a diagnosis.
	skipExplain bool

	mu          sync.Mutex
	state       model.SessionState
	generation  uint64
	record      *model.DiagnosticRecord
	image       *model.ImageRef
	heatmap     *model.HeatmapRef
	demoEmoji   string
	waiter      *heatmapWaiter
	subscribers []chan Snapshot
	closed      bool

	// tasks tracks detached goroutines (explain calls and notifications).
	tasks       sync.WaitGroup
	attachments chan attachment
	loopDone    chan struct{}
	closeOnce   sync.Once
}

// attachment is the result of one explain call.
type attachment struct {
	generation uint64
	heatmap    *model.HeatmapRef
	err        error
	waiter     *heatmapWaiter
}

// heatmapWaiter is closed once the explain task of a generation settles.
type heatmapWaiter struct {
	done chan struct{}
	once sync.Once
}

func newHeatmapWaiter() *heatmapWaiter {
	return &heatmapWaiter{done: make(chan struct{})}
}

func (w *heatmapWaiter) settle() {
	if w == nil {
		return
	}
	w.once.Do(func() { close(w.done) })
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCatalog replaces the demo catalog.
func WithCatalog(c *model.Catalog) Option {
	return func(s *Session) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithDemoDelay sets the simulated analysis time of the demo path.
// Negative values are treated as zero.
func WithDemoDelay(d time.Duration) Option {
	return func(s *Session) {
		s.demoDelay = max(d, 0)
	}
}

// WithRand sets the random source used to pick demo samples.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		s.rng = r
	}
}

// WithNormalizer replaces the result normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Session) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithImageStore replaces the image store.
func WithImageStore(store ImageStore) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMetrics enables metric collection.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Session) {
		s.metrics = c
	}
}

// WithNotifier sets the notifier told about settled records.
func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithoutHeatmap stops the session from requesting a heatmap after a
// successful diagnosis. Heatmap then returns at once with no overlay.
func WithoutHeatmap() Option {
	return func(s *Session) {
		s.skipExplain = true
	}
}

// WithClock replaces the sleep used by the demo wait. Tests use it to
// avoid real delays.
func WithClock(sleep SleepFunc) Option {
	return func(s *Session) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// New creates a session in the Upload state and starts its attachment
// loop. Call Close when done.
func New(client Diagnoser, opts ...Option) *Session {
	s := &Session{
		client:      client,
		logger:      slog.Default(),
		sleep:       sleepContext,
		demoDelay:   DefaultDemoDelay,
		state:       model.StateUpload,
		attachments: make(chan attachment, attachmentBuffer),
		loopDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalize.New(nil, locale.For(language.English))
	}
	if s.catalog == nil {
		s.catalog = locale.DefaultCatalog(language.English)
	}
	if s.store == nil {
		s.store = NewMemoryStore()
	}

	go s.loop()
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit diagnoses img. A nil img takes the demo path with a random
// sample, as an upload without a file does.
//
// Backend failures never surface as errors: an unreachable backend yields
// a connectivity record and an error envelope a cautionary record. The
// only errors are ErrSuperseded, when the session was reset or resubmitted
// before the answer came back, and ErrClosed.
func (s *Session) Submit(ctx context.Context, img *acquire.Image) (model.DiagnosticRecord, error) {
	if img == nil {
		return s.SubmitDemo(ctx, "")
	}

	gen, ref, waiter, err := s.begin(img)
	if err != nil {
		return model.DiagnosticRecord{}, err
	}

	start := time.Now()
	resp, err := s.client.Predict(ctx, img)

	var rec model.DiagnosticRecord
	source := metrics.SourceBackend
	if err != nil {
		s.logger.Warn("diagnosis backend unreachable", "image", img.Name, "error", err)
		rec = s.normalizer.Unreachable(err)
		source = metrics.SourceUnreachable
	} else {
		rec = s.normalizer.FromPredict(resp)
	}

	if !s.resolve(gen, rec, "") {
		waiter.settle()
		s.logger.Debug("discarding stale diagnosis", "generation", gen)
		s.metrics.IncSuperseded()
		return model.DiagnosticRecord{}, ErrSuperseded
	}

	// A request cut short by the caller is not a finished diagnosis.
	if source == metrics.SourceUnreachable && ctx.Err() != nil {
		waiter.settle()
		s.logger.Debug("diagnosis interrupted", "generation", gen, "error", ctx.Err())
		return rec.Clone(), nil
	}

	s.metrics.ObserveDiagnosis(source, rec.Status, time.Since(start))
	s.logger.Debug("diagnosis resolved",
		"generation", gen, "status", rec.Status.String(), "confidence", rec.Confidence)

	// The heatmap is only requested once the primary call succeeded.
	if source == metrics.SourceBackend && !s.skipExplain {
		s.startExplain(ctx, gen, img, waiter)
	} else {
		waiter.settle()
	}
	s.notify(ctx, rec, ref)
	return rec.Clone(), nil
}

// SubmitDemo runs the demo path: no transport is involved, the session
// waits the demo delay and settles on the catalog sample named by key.
// An empty key picks a random sample and an unknown key falls back to
// the first one.
//
// If ctx ends during the wait the session returns to Upload and the
// context error is returned.
func (s *Session) SubmitDemo(ctx context.Context, key string) (model.DiagnosticRecord, error) {
	gen, _, waiter, err := s.begin(nil)
	if err != nil {
		return model.DiagnosticRecord{}, err
	}
	// The demo path never produces a heatmap.
	waiter.settle()

	start := time.Now()
	if err := s.sleep(ctx, s.demoDelay); err != nil {
		s.abort(gen)
		return model.DiagnosticRecord{}, err
	}

	sample := s.pickSample(key)
	rec := sample.Record
	if !s.resolve(gen, rec, sample.Emoji) {
		s.metrics.IncSuperseded()
		return model.DiagnosticRecord{}, ErrSuperseded
	}
	s.metrics.ObserveDiagnosis(metrics.SourceDemo, rec.Status, time.Since(start))
	s.logger.Debug("demo diagnosis resolved", "generation", gen, "sample", sample.Key)
	s.notify(ctx, rec, nil)
	return rec.Clone(), nil
}

func (s *Session) pickSample(key string) model.DemoSample {
	if key == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.catalog.Random(s.rng)
	}
	sample, ok := s.catalog.Sample(key)
	if !ok {
		s.logger.Debug("unknown demo sample, using the first one", "key", key, "fallback", sample.Key)
	}
	return sample
}

// Reset returns the session to Upload from any state. The held image is
// released, the record and heatmap are dropped, and any in-flight work
// becomes stale.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseImageLocked()
	s.record = nil
	s.heatmap = nil
	s.demoEmoji = ""
	s.state = model.StateUpload
	s.generation++
	s.waiter.settle()
	s.waiter = nil
	s.publishLocked()
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Heatmap waits until the explain task of the current generation settles
// or ctx ends, and returns the attached heatmap if any.
func (s *Session) Heatmap(ctx context.Context) (*model.HeatmapRef, bool) {
	s.mu.Lock()
	gen, h, w := s.generation, s.heatmap, s.waiter
	s.mu.Unlock()

	if h != nil {
		return copyHeatmap(h), true
	}
	if w == nil {
		return nil, false
	}

	select {
	case <-w.done:
	case <-ctx.Done():
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.heatmap == nil {
		return nil, false
	}
	return copyHeatmap(s.heatmap), true
}

// Subscribe returns a channel receiving a snapshot after every state
// change. Slow subscribers miss intermediate snapshots. The channel is
// closed by Close.
func (s *Session) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Close waits for detached explain calls and notifications to finish,
// stops the attachment loop and closes subscriber channels. The held
// image stays referenced until Reset. Close is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.tasks.Wait()
		close(s.attachments)
		<-s.loopDone

		s.mu.Lock()
		for _, ch := range s.subscribers {
			close(ch)
		}
		s.subscribers = nil
		s.mu.Unlock()
	})
}

// begin moves the session to Scanning for a new submission and returns the
// generation it owns. img is nil for the demo path.
func (s *Session) begin(img *acquire.Image) (uint64, *model.ImageRef, *heatmapWaiter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, nil, nil, ErrClosed
	}

	s.releaseImageLocked()
	if img != nil {
		ref := s.store.Put(img)
		s.image = &ref
	}
	s.record = nil
	s.heatmap = nil
	s.demoEmoji = ""
	s.state = model.StateScanning
	s.generation++
	s.waiter.settle()
	s.waiter = newHeatmapWaiter()
	s.publishLocked()

	var ref *model.ImageRef
	if s.image != nil {
		r := *s.image
		ref = &r
	}
	return s.generation, ref, s.waiter, nil
}

// resolve stores rec if gen is still current. It reports whether it did.
func (s *Session) resolve(gen uint64, rec model.DiagnosticRecord, emoji string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != model.StateScanning {
		return false
	}
	stored := rec.Clone()
	s.record = &stored
	s.demoEmoji = emoji
	s.state = model.StateResult
	s.publishLocked()
	return true
}

// abort returns a cancelled submission to Upload, keeping the image.
func (s *Session) abort(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.state = model.StateUpload
	s.waiter.settle()
	s.waiter = nil
	s.publishLocked()
}

// startExplain requests the heatmap in a detached goroutine. The call
// outlives ctx's cancellation; the HTTP client timeout bounds it.
func (s *Session) startExplain(ctx context.Context, gen uint64, img *acquire.Image, waiter *heatmapWaiter) {
	detached := context.WithoutCancel(ctx)
	started := s.spawn(func() {
		resp, err := s.client.Explain(detached, img)
		var h *model.HeatmapRef
		if err == nil {
			h, err = s.normalizer.Heatmap(resp)
		}
		s.attachments <- attachment{generation: gen, heatmap: h, err: err, waiter: waiter}
	})
	if !started {
		waiter.settle()
	}
}

func (s *Session) notify(ctx context.Context, rec model.DiagnosticRecord, ref *model.ImageRef) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.spawn(func() {
		if err := s.notifier.DiagnosisComplete(detached, rec, ref); err != nil {
			s.logger.Warn("failed to publish diagnosis", "record", rec.ID, "error", err)
		}
	})
}

// spawn runs fn as a tracked task unless the session is closed.
func (s *Session) spawn(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.tasks.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.tasks.Done()
		fn()
	}()
	return true
}

// loop attaches explain results to the session when their generation is
// still current.
func (s *Session) loop() {
	defer close(s.loopDone)

	for a := range s.attachments {
		outcome := s.attach(a)
		a.waiter.settle()
		s.metrics.ObserveExplain(outcome)
	}
}

func (s *Session) attach(a attachment) string {
	if a.err != nil {
		// Explain failures never affect the record.
		s.logger.Debug("explain failed", "generation", a.generation, "error", a.err)
		return metrics.OutcomeFailed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a.generation != s.generation || s.state != model.StateResult {
		return metrics.OutcomeDiscarded
	}
	s.heatmap = a.heatmap
	s.publishLocked()
	return metrics.OutcomeAttached
}

func (s *Session) releaseImageLocked() {
	if s.image == nil {
		return
	}
	if err := s.store.Release(*s.image); err != nil {
		s.logger.Warn("failed to release image", "ref", s.image.URL, "error", err)
	} else {
		s.metrics.IncReleased()
	}
	s.image = nil
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:      s.state,
		Generation: s.generation,
		DemoEmoji:  s.demoEmoji,
		Heatmap:    copyHeatmap(s.heatmap),
	}
	if s.record != nil {
		rec := s.record.Clone()
		snap.Record = &rec
	}
	if s.image != nil {
		img := *s.image
		snap.Image = &img
	}
	return snap
}

func (s *Session) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func copyHeatmap(h *model.HeatmapRef) *model.HeatmapRef {
	if h == nil {
		return nil
	}
	return &model.HeatmapRef{MediaType: h.MediaType, Data: append([]byte(nil), h.Data...)}
}
