package notify

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

// Observer publishes an event when a run completes. Publishing failures are
// logged and never affect the run.
type Observer struct {
	pipeline.NoopObserver
	Publisher Publisher
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewObserver returns an observer publishing through p.
func NewObserver(p Publisher, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{Publisher: p, Timeout: 5 * time.Second, Logger: logger}
}

func (o *Observer) OnRunComplete(r *pipeline.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), o.Timeout)
	defer cancel()
	if err := o.Publisher.PublishRun(ctx, FromReport(r)); err != nil {
		o.Logger.Warn("Failed to publish run event", logfields.RunID(r.RunID), logfields.Error(err))
	}
}
