package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackfast/internal/recommend"
)

func TestNewPrometheusMetrics_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewPrometheusMetrics(registry)
	m.ObserveRequest("/api/blueprints", http.StatusOK, 10*time.Millisecond)
	m.ObserveStage(recommend.StateScoring, time.Millisecond)
	m.ObservePipeline(recommend.StateDone, time.Second)
	m.IncAnalysisFallback()
	m.ObserveLLMLatency("ollama", "llama3", 500*time.Millisecond, nil)

	metrics, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.GetName())
	}

	assert.Contains(t, names, "stackfast_http_request_duration_seconds")
	assert.Contains(t, names, "stackfast_pipeline_stage_duration_seconds")
	assert.Contains(t, names, "stackfast_pipeline_duration_seconds")
	assert.Contains(t, names, "stackfast_pipeline_runs_total")
	assert.Contains(t, names, "stackfast_analysis_fallbacks_total")
	assert.Contains(t, names, "stackfast_llm_latency_seconds")
}

func gatherFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return nil
}

func TestPrometheusMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPrometheusMetrics(registry)

	m.ObservePipeline(recommend.StateDone, time.Second)
	m.ObservePipeline(recommend.StateDone, time.Second)
	m.ObservePipeline(recommend.StateFailed, time.Second)
	m.IncAnalysisFallback()

	runs := map[string]float64{}
	for _, metric := range gatherFamily(t, registry, "stackfast_pipeline_runs_total").GetMetric() {
		runs[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"Done": 2, "Failed": 1}, runs)

	fallbacks := gatherFamily(t, registry, "stackfast_analysis_fallbacks_total").GetMetric()
	require.Len(t, fallbacks, 1)
	assert.Equal(t, 1.0, fallbacks[0].GetCounter().GetValue())
}

func TestPrometheusMetrics_LLMStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPrometheusMetrics(registry)
	m.ObserveLLMLatency("openai", "gpt-4o", time.Second, errors.New("boom"))
	m.ObserveLLMLatency("openai", "gpt-4o", time.Second, nil)

	assert.Len(t, gatherFamily(t, registry, "stackfast_llm_latency_seconds").GetMetric(), 2)
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())
	m.IncAnalysisFallback()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "stackfast_analysis_fallbacks_total 1")
}
