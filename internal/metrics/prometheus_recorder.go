package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   *prom.HistogramVec
	stageResults  *prom.CounterVec
	runOutcomes   *prom.CounterVec
	itemResults   *prom.CounterVec
	artifactBytes *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual pipeline stages",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"stage"})
	pr.runDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Total pipeline run duration by output format",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"format"})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "run_outcomes_total",
		Help:      "Pipeline run outcomes by format and final status",
	}, []string{"format", "outcome"})
	pr.itemResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "item_results_total",
		Help:      "Per-item copy and conversion results",
	}, []string{"kind", "result"})
	pr.artifactBytes = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "artifact_size_bytes",
		Help:      "Size of the last artifact produced per format",
	}, []string{"format"})
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcomes, pr.itemResults, pr.artifactBytes)
	return pr
}

// Registry returns the registry the recorder's collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(format string, d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(format string, outcome RunOutcomeLabel) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(format, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncItemResult(kind string, success bool) {
	if p == nil || p.itemResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.itemResults.WithLabelValues(kind, res).Inc()
}

func (p *PrometheusRecorder) ObserveArtifactSize(format string, bytes int64) {
	if p == nil || p.artifactBytes == nil {
		return
	}
	p.artifactBytes.WithLabelValues(format).Set(float64(bytes))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The file is written atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || path == "" {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
