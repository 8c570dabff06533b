package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records pipeline metrics using Prometheus
// ⭐ SSOT: 메트릭 정의는 여기서만
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageRuns     *prometheus.CounterVec
	stepFailures  *prometheus.CounterVec
	stepSkipped   *prometheus.CounterVec
	tickers       *prometheus.GaugeVec
	watchTriggers *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder on its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screener_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		stageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_stage_runs_total",
				Help: "Pipeline stage runs by outcome",
			},
			[]string{"stage", "outcome"},
		),
		stepFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_enrich_step_failures_total",
				Help: "Enrichment steps that failed and were skipped",
			},
			[]string{"step"},
		),
		stepSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_enrich_step_skipped_total",
				Help: "Enrichment steps skipped because the snapshot was unavailable",
			},
			[]string{"step"},
		),
		tickers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "screener_tickers",
				Help: "Tickers in the latest document of each stage",
			},
			[]string{"stage"},
		),
		watchTriggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_watch_triggers_total",
				Help: "File watcher trigger decisions",
			},
			[]string{"key", "decision"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_api_cache_requests_total",
				Help: "API document cache lookups",
			},
			[]string{"result"},
		),
	}
}

// RecordStage records a stage run and its latency in seconds
func (r *Recorder) RecordStage(stage string, seconds float64, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
	r.stageRuns.WithLabelValues(stage, outcome).Inc()
}

// RecordStepFailure records an enrichment step that failed
func (r *Recorder) RecordStepFailure(step string) {
	if r == nil {
		return
	}
	r.stepFailures.WithLabelValues(step).Inc()
}

// RecordStepSkipped records an enrichment step skipped for missing input
func (r *Recorder) RecordStepSkipped(step string) {
	if r == nil {
		return
	}
	r.stepSkipped.WithLabelValues(step).Inc()
}

// RecordTickers sets the ticker count produced by a stage
func (r *Recorder) RecordTickers(stage string, n int) {
	if r == nil {
		return
	}
	r.tickers.WithLabelValues(stage).Set(float64(n))
}

// RecordWatchTrigger records whether a file event fired or was suppressed
func (r *Recorder) RecordWatchTrigger(key, decision string) {
	if r == nil {
		return
	}
	r.watchTriggers.WithLabelValues(key, decision).Inc()
}

// RecordCache records an API cache hit or miss
func (r *Recorder) RecordCache(result string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry (tests, custom collectors)
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns the /metrics HTTP handler
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
