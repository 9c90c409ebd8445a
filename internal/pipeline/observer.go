package pipeline

import (
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
)

// Observer receives callbacks around stage execution and the run lifecycle.
// Metrics, history and notifications all hook in here without changing
// stage code.
type Observer interface {
	OnRunStart(report *Report)
	OnStageStart(runID string, stage StageName)
	OnStageComplete(runID string, stage StageName, d time.Duration, result StageResult, err error)
	OnRunComplete(report *Report)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(*Report)                                                   {}
func (NoopObserver) OnStageStart(string, StageName)                                       {}
func (NoopObserver) OnStageComplete(string, StageName, time.Duration, StageResult, error) {}
func (NoopObserver) OnRunComplete(*Report)                                                {}

// Observers fans every callback out in order.
type Observers []Observer

func (obs Observers) OnRunStart(r *Report) {
	for _, o := range obs {
		o.OnRunStart(r)
	}
}

func (obs Observers) OnStageStart(runID string, stage StageName) {
	for _, o := range obs {
		o.OnStageStart(runID, stage)
	}
}

func (obs Observers) OnStageComplete(runID string, stage StageName, d time.Duration, result StageResult, err error) {
	for _, o := range obs {
		o.OnStageComplete(runID, stage, d, result, err)
	}
}

func (obs Observers) OnRunComplete(r *Report) {
	for _, o := range obs {
		o.OnRunComplete(r)
	}
}

// recorderObserver adapts metrics.Recorder into an Observer.
type recorderObserver struct{ rec metrics.Recorder }

func (recorderObserver) OnRunStart(*Report)             {}
func (recorderObserver) OnStageStart(string, StageName) {}

func (r recorderObserver) OnStageComplete(_ string, stage StageName, d time.Duration, _ StageResult, _ error) {
	r.rec.ObserveStageDuration(string(stage), d)
}

func (r recorderObserver) OnRunComplete(report *Report) {
	format := string(report.Format)
	r.rec.ObserveRunDuration(format, report.Duration())
	r.rec.IncRunOutcome(format, metrics.RunOutcomeLabel(report.Outcome))
	for _, a := range report.Artifacts {
		if a.Size > 0 {
			r.rec.ObserveArtifactSize(a.Kind, a.Size)
		}
	}
}
