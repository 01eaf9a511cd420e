package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/plantdoc/internal/model"
)

const namespace = "plantdoc"

// Source labels where a diagnosis record came from.
const (
	// SourceBackend labels records normalized from a predict response.
	SourceBackend = "backend"
	// SourceDemo labels records taken from the demo catalog.
	SourceDemo = "demo"
	// SourceUnreachable labels connectivity records synthesized locally.
	SourceUnreachable = "unreachable"
)

// Outcome labels how an explain task or a chat exchange settled.
const (
	OutcomeAttached  = "attached"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
	OutcomeAnswered  = "answered"
	OutcomeApology   = "apology"
)

// Collector holds the counters and histograms of one plantdoc process.
// All methods are safe on a nil *Collector, so callers can leave metrics
// disabled without guarding every call site.
//
// Design decision: The collectors live in a struct with their own
// registry instead of package globals. Tests create isolated collectors
// and the CLI writes exactly the series it registered to the textfile.
type Collector struct {
	registry *prometheus.Registry

	diagnoses  *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	superseded prometheus.Counter
	explains   *prometheus.CounterVec
	released   prometheus.Counter
	chats      *prometheus.CounterVec
}

// NewCollector creates a Collector registered on a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		diagnoses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnoses_total",
				Help:      "Total number of diagnosis records produced, partitioned by source and status.",
			},
			[]string{"source", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "diagnosis_seconds",
				Help:      "Time from submission to record, in seconds.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
			},
			[]string{"source"},
		),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_total",
			Help:      "Resolutions discarded because the session moved on.",
		}),
		explains: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "explain_total",
				Help:      "Explain tasks partitioned by how they settled.",
			},
			[]string{"outcome"},
		),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_released_total",
			Help:      "Image references released by sessions.",
		}),
		chats: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_total",
				Help:      "Assistant exchanges partitioned by outcome.",
			},
			[]string{"outcome"},
		),
	}
	// A fresh registry cannot reject these.
	_ = c.Register(c.registry)
	return c
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.diagnoses,
		c.latency,
		c.superseded,
		c.explains,
		c.released,
		c.chats,
	}
}

// Register attaches the collectors to an additional registerer, such as
// prometheus.DefaultRegisterer. Collectors already registered are skipped.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if c == nil {
		return nil
	}
	for _, collector := range c.collectors() {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Gatherer returns the private registry.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.registry
}

// WriteTextfile writes every series in Prometheus text format, suitable
// for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// ObserveDiagnosis records one produced record and its latency.
func (c *Collector) ObserveDiagnosis(source string, status model.Status, duration time.Duration) {
	if c == nil {
		return
	}
	c.diagnoses.WithLabelValues(source, status.String()).Inc()
	if duration < 0 {
		duration = 0
	}
	c.latency.WithLabelValues(source).Observe(duration.Seconds())
}

// IncSuperseded counts a discarded stale resolution.
func (c *Collector) IncSuperseded() {
	if c == nil {
		return
	}
	c.superseded.Inc()
}

// ObserveExplain counts a settled explain task.
func (c *Collector) ObserveExplain(outcome string) {
	if c == nil {
		return
	}
	c.explains.WithLabelValues(outcome).Inc()
}

// IncReleased counts a released image reference.
func (c *Collector) IncReleased() {
	if c == nil {
		return
	}
	c.released.Inc()
}

// ObserveChat counts an assistant exchange.
func (c *Collector) ObserveChat(outcome string) {
	if c == nil {
		return
	}
	c.chats.WithLabelValues(outcome).Inc()
}
