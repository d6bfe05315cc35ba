package recommend

import "time"

// Metrics receives pipeline measurements.
type Metrics interface {
	ObserveStage(stage State, d time.Duration)
	ObservePipeline(outcome State, d time.Duration)
	IncAnalysisFallback()
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) ObserveStage(State, time.Duration)    {}
func (NopMetrics) ObservePipeline(State, time.Duration) {}
func (NopMetrics) IncAnalysisFallback()                 {}
