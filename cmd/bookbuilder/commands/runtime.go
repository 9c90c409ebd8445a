package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/history"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/notify"
	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

// reportsDir holds the latest persisted build report, relative to the project root.
const reportsDir = ".bookbuilder/reports"

// runtime is the wired pipeline for one CLI invocation.
type runtime struct {
	cfg     *config.Config
	orch    *pipeline.Orchestrator
	prom    *metrics.PrometheusRecorder
	logger  *slog.Logger
	closers []func() error
}

func loadConfig(root *CLI) (*config.Config, error) {
	path := root.ConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to load configuration").
			WithContext("path", path).
			WithHint("run 'bookbuilder init' to write an example configuration").
			Build()
	}
	return cfg, nil
}

// newRuntime wires the orchestrator with the observers the configuration
// enables: run history, NATS notifications and the metrics textfile.
func newRuntime(ctx context.Context, g *Global, root *CLI) (*runtime, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: g.Logger}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}

	var observers pipeline.Observers
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.Abs(cfg.History.Path))
		if err != nil {
			rt.logger.Warn("Run history disabled", logfields.Error(err))
		} else {
			rt.closers = append(rt.closers, store.Close)
			observers = append(observers, history.NewObserver(store, rt.logger))
		}
	}
	if cfg.Notify.NATSURL != "" {
		client, err := notify.NewNATSClient(ctx, cfg.Notify)
		if err != nil {
			rt.logger.Warn("Run notifications disabled", logfields.Error(err))
		} else {
			rt.closers = append(rt.closers, client.Close)
			observers = append(observers, notify.NewObserver(client, rt.logger))
		}
	}

	opts := pipeline.Options{Logger: rt.logger}
	if cfg.Metrics.TextfilePath != "" {
		rt.prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		opts.Recorder = rt.prom
	}
	if len(observers) > 0 {
		opts.Observer = observers
	}
	rt.orch = pipeline.New(cfg, opts)
	return rt, nil
}

// finish persists the report and metrics of a run and returns runErr.
func (rt *runtime) finish(report *pipeline.Report, runErr error) error {
	if report != nil {
		dir := filepath.Join(rt.cfg.Project.Root, reportsDir)
		if err := report.Persist(dir); err != nil {
			rt.logger.Warn("Failed to persist build report", logfields.Path(dir), logfields.Error(err))
		}
		fmt.Println(report.Summary())
	}
	if rt.prom != nil {
		path := rt.cfg.Abs(rt.cfg.Metrics.TextfilePath)
		if err := rt.prom.WriteTextfile(path); err != nil {
			rt.logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}
	return runErr
}

func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	return errors.Join(errs...)
}

// variantFor returns flag when set, otherwise the project's active variant.
func variantFor(cfg *config.Config, flag string) string {
	if flag != "" {
		return flag
	}
	s, err := config.LoadSettings(cfg.SettingsPath())
	if err != nil {
		slog.Warn("Ignoring unreadable project settings", logfields.Error(err))
		return ""
	}
	return s.ActiveVariant
}
