package segmenter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "segmenter"

// Metrics records pipeline activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	modelCalls   *prometheus.CounterVec
	retries      *prometheus.CounterVec
	switches     prometheus.Counter
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	pages        *prometheus.CounterVec
	pageDuration prometheus.Histogram
	runs         *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "model_calls_total",
			Help:      "Model invocations by model and outcome.",
		}, []string{"model", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retries_total",
			Help:      "Page retries by failure kind.",
		}, []string{"kind"}),
		switches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "model_switches_total",
			Help:      "Fallbacks to the next model.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hits_total",
			Help:      "Pages served from the page cache.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_misses_total",
			Help:      "Page cache lookups that required a model call.",
		}),
		pages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pages_total",
			Help:      "Pages by final state.",
		}, []string{"state"}),
		pageDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "page_duration_seconds",
			Help:      "Wall time to produce one page, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) modelCall(model, outcome string) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(model, outcome).Inc()
}

func (m *Metrics) retry(kind string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(kind).Inc()
}

func (m *Metrics) modelSwitch() {
	if m == nil {
		return
	}
	m.switches.Inc()
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) page(state string, started time.Time) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(state).Inc()
	m.pageDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) run(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}
