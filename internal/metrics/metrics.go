package metrics

import (
	"net/http"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/cache"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lexgraph"

var (
	durationBuckets = []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	fetchBuckets    = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300}
)

// Metrics records cache and pipeline activity. It satisfies cache.Observer
// and graph.StageObserver so it can be handed to both directly.
type Metrics struct {
	registry *prometheus.Registry

	cacheEvents   *prometheus.CounterVec
	cacheFetch    *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	analyses      *prometheus.CounterVec
	jobs          *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache lookups by store and outcome.",
		}, []string{"store", "event"}),
		cacheFetch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching from the lexical network on a cache miss.",
			Buckets:   fetchBuckets,
		}, []string{"store"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   durationBuckets,
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_errors_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses served, by entry point and status.",
		}, []string{"source", "status"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_total",
			Help:      "Queue jobs by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheEvents, m.cacheFetch, m.stageDuration, m.stageErrors, m.analyses, m.jobs,
	)
	return m
}

// Observe implements cache.Observer.
func (m *Metrics) Observe(name string, event cache.Event, d time.Duration) {
	m.cacheEvents.WithLabelValues(name, string(event)).Inc()
	if event != cache.EventHit {
		m.cacheFetch.WithLabelValues(name).Observe(d.Seconds())
	}
}

// ObserveStage implements graph.StageObserver.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(stage).Inc()
	}
}

// Analysis counts one analysis request from source ("http", "worker", "cli").
func (m *Metrics) Analysis(source string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.analyses.WithLabelValues(source, status).Inc()
}

// Job counts a queue delivery outcome: "done", "retry" or "dead".
func (m *Metrics) Job(outcome string) {
	m.jobs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
