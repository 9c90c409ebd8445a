package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// RunOutcomeLabel is the final status of a pipeline run: success|warning|failed|canceled.
type RunOutcomeLabel string

// Recorder defines observability hooks for run and stage metrics. Implementations
// may forward to Prometheus or anything else.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(format string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(format string, outcome RunOutcomeLabel)
	IncItemResult(kind string, success bool) // kind: copy|convert
	ObserveArtifactSize(format string, bytes int64)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)   {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(string, RunOutcomeLabel)      {}
func (NoopRecorder) IncItemResult(string, bool)                 {}
func (NoopRecorder) ObserveArtifactSize(string, int64)          {}
