package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

const writeTimeout = 5 * time.Second

// Observer records pipeline runs into a Store. Write failures are logged;
// history never changes a run's outcome.
type Observer struct {
	Store  Store
	Logger *slog.Logger
}

var _ pipeline.Observer = (*Observer)(nil)

// NewObserver returns an observer writing to store.
func NewObserver(store Store, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{Store: store, Logger: logger}
}

func (o *Observer) OnRunStart(r *pipeline.Report) {
	o.append(r.RunID, TypeRunStarted, RunStartedPayload{
		Kind:     r.Kind,
		Work:     r.Work,
		Format:   string(r.Format),
		Language: r.Language,
		Variant:  r.Variant,
		Revision: r.Revision,
	})
}

func (o *Observer) OnStageStart(string, pipeline.StageName) {}

func (o *Observer) OnStageComplete(runID string, stage pipeline.StageName, d time.Duration, result pipeline.StageResult, err error) {
	p := StageCompletedPayload{Stage: string(stage), Result: string(result), DurationMS: d.Milliseconds()}
	if err != nil {
		p.Error = err.Error()
	}
	o.append(runID, TypeStageCompleted, p)
}

func (o *Observer) OnRunComplete(r *pipeline.Report) {
	p := RunCompletedPayload{
		Outcome:     string(r.Outcome),
		FailedStage: string(r.FailedStage),
		DurationMS:  r.Duration().Milliseconds(),
		Warnings:    len(r.Warnings),
	}
	if len(r.Errors) > 0 {
		p.Error = r.Errors[0].Error()
	}
	for _, a := range r.Artifacts {
		p.Artifacts = append(p.Artifacts, a.Path)
	}
	o.append(r.RunID, TypeRunCompleted, p)
}

func (o *Observer) append(runID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		o.Logger.Warn("Failed to encode run event", logfields.RunID(runID), logfields.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := o.Store.Append(ctx, runID, eventType, data, nil); err != nil {
		o.Logger.Warn("Failed to record run event",
			logfields.RunID(runID), slog.String("event_type", eventType), logfields.Error(err))
	}
}
