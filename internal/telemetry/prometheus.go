package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stackfast/internal/llm"
	"stackfast/internal/recommend"
)

type PrometheusMetrics struct {
	requestDuration   *prometheus.HistogramVec
	stageDuration     *prometheus.HistogramVec
	pipelineDuration  *prometheus.HistogramVec
	pipelineOutcomes  *prometheus.CounterVec
	analysisFallbacks prometheus.Counter
	llmLatency        *prometheus.HistogramVec
	gatherer          prometheus.Gatherer
}

// NewPrometheusMetrics registers every collector on registry. A nil registry
// uses the default one.
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if registry != nil {
		registerer, gatherer = registry, registry
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackfast_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route", "status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackfast_pipeline_stage_duration_seconds",
				Help:    "Time spent in each selection pipeline state",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"stage"},
		),
		pipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackfast_pipeline_duration_seconds",
				Help:    "Duration of complete selection pipeline runs",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		pipelineOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackfast_pipeline_runs_total",
				Help: "Total number of selection pipeline runs by final state",
			},
			[]string{"outcome"},
		),
		analysisFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stackfast_analysis_fallbacks_total",
				Help: "Total number of runs that used the neutral project analysis",
			},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackfast_llm_latency_seconds",
				Help:    "Latency of project-analysis LLM calls in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "model", "status"},
		),
		gatherer: gatherer,
	}
}

// ObserveRequest records one served HTTP request.
func (p *PrometheusMetrics) ObserveRequest(route string, status int, d time.Duration) {
	p.requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (p *PrometheusMetrics) ObserveStage(stage recommend.State, d time.Duration) {
	p.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func (p *PrometheusMetrics) ObservePipeline(outcome recommend.State, d time.Duration) {
	p.pipelineDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
	p.pipelineOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusMetrics) IncAnalysisFallback() {
	p.analysisFallbacks.Inc()
}

func (p *PrometheusMetrics) ObserveLLMLatency(provider, model string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.llmLatency.WithLabelValues(provider, model, status).Observe(d.Seconds())
}

// Handler serves the exposition format for the registry the metrics live in.
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

var (
	_ recommend.Metrics   = (*PrometheusMetrics)(nil)
	_ llm.LatencyObserver = (*PrometheusMetrics)(nil)
)
