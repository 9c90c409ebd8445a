package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/epub"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/opener"
	"git.home.luguber.info/inful/bookbuilder/internal/stage"
	"git.home.luguber.info/inful/bookbuilder/internal/vcs"
	"git.home.luguber.info/inful/bookbuilder/internal/wordexport"
	"git.home.luguber.info/inful/bookbuilder/internal/workspace"
)

// ManifestResolver resolves the file list and settings for a build.
type ManifestResolver interface {
	Resolve(ctx context.Context, q metadata.Query) (metadata.Manifest, error)
}

// Options carries the collaborators of an Orchestrator. Zero fields get
// defaults derived from the project config.
type Options struct {
	Runner    stage.Runner
	Resolver  ManifestResolver
	Workspace *workspace.Manager
	Assembler *epub.Assembler
	Validator *epub.Validator
	Converter *wordexport.Converter
	Opener    opener.Opener
	Recorder  metrics.Recorder
	Observer  Observer
	Logger    *slog.Logger
	Now       func() time.Time
	Revision  func(root string) (vcs.Revision, error)
}

// Orchestrator runs the stage sequence for a build request, one stage at a
// time, and stops at the first fatal stage.
type Orchestrator struct {
	cfg       *config.Config
	paths     Paths
	runner    stage.Runner
	resolver  ManifestResolver
	workspace *workspace.Manager
	assembler *epub.Assembler
	validator *epub.Validator
	converter *wordexport.Converter
	opener    opener.Opener
	recorder  metrics.Recorder
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
	revision  func(root string) (vcs.Revision, error)
	stages    map[StageName]Stage
}

// RunState is the mutable state shared by the stages of one run. Serve runs
// the site generator's development server instead of a build.
type RunState struct {
	Request  Request
	Manifest metadata.Manifest
	Math     bool
	Serve    bool
	Report   *Report
	Log      *slog.Logger
}

// New wires an Orchestrator for the project described by cfg.
func New(cfg *config.Config, opts Options) *Orchestrator {
	paths := PathsFromConfig(cfg)
	o := &Orchestrator{
		cfg:       cfg,
		paths:     paths,
		runner:    opts.Runner,
		resolver:  opts.Resolver,
		workspace: opts.Workspace,
		assembler: opts.Assembler,
		validator: opts.Validator,
		converter: opts.Converter,
		opener:    opts.Opener,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		now:       opts.Now,
		revision:  opts.Revision,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.runner == nil {
		o.runner = stage.NewExecRunner(o.logger)
	}
	if o.resolver == nil {
		r := metadata.NewResolver(metadata.NewFileStore(paths.Works))
		r.Logger = o.logger
		o.resolver = r
	}
	if o.workspace == nil {
		o.workspace = workspace.NewManager(paths.Root, paths.Site, paths.Output)
	}
	if o.assembler == nil {
		o.assembler = &epub.Assembler{Logger: o.logger}
	}
	if o.validator == nil {
		o.validator = &epub.Validator{Runner: o.runner, Binary: cfg.Tools.Epubcheck, Logger: o.logger}
	}
	if o.converter == nil {
		o.converter = &wordexport.Converter{Runner: o.runner, Binary: cfg.Tools.Pandoc, Logger: o.logger}
	}
	if o.opener == nil {
		o.opener = &opener.Command{Runner: o.runner, Binary: cfg.Tools.Opener}
	}
	if o.recorder == nil {
		o.recorder = metrics.NoopRecorder{}
	}
	observers := Observers{recorderObserver{rec: o.recorder}}
	if opts.Observer != nil {
		observers = append(observers, opts.Observer)
	}
	o.observer = observers
	if o.now == nil {
		o.now = time.Now
	}
	if o.revision == nil {
		o.revision = vcs.Current
	}
	o.stages = o.stageTable()
	return o
}

// Paths returns the resolved project layout.
func (o *Orchestrator) Paths() Paths { return o.paths }

// Run executes the build described by req. The report is returned whenever
// the request was valid, including for failed runs; the error is classified
// for the CLI.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return o.execute(ctx, "build", req, true, func(rs *RunState) []StageName {
		return Plan(rs.Request, rs.Math)
	})
}

// execute is the shared run loop behind builds and project tasks.
func (o *Orchestrator) execute(ctx context.Context, kind string, req Request, resolve bool, plan func(*RunState) []StageName) (*Report, error) {
	report := newReport(uuid.NewString(), req, o.now())
	report.Kind = kind
	rs := &RunState{
		Request: req,
		Serve:   kind == "build" && req.Format == FormatWeb,
		Report:  report,
		Log: o.logger.With(
			logfields.RunID(report.RunID),
			logfields.Work(req.Work),
			logfields.Format(string(req.Format)),
		),
	}
	if rev, err := o.revision(o.paths.Root); err != nil {
		rs.Log.Debug("Source revision unavailable", logfields.Error(err))
	} else {
		report.Revision = rev.String()
	}
	o.observer.OnRunStart(report)

	err := o.prepare(ctx, rs, resolve)
	if err == nil {
		if o.cfg.LockEnabled() {
			if err = o.workspace.Acquire(); err == nil {
				defer func() {
					if rerr := o.workspace.Release(); rerr != nil {
						rs.Log.Warn("Failed to release project lock", logfields.Error(rerr))
					}
				}()
			}
		}
	}
	if err != nil {
		return o.complete(rs, err)
	}

	names := plan(rs)
	report.Stages = names
	defs := make([]StageDef, 0, len(names))
	for _, n := range names {
		fn, ok := o.stages[n]
		if !ok {
			return o.complete(rs, fmt.Errorf("no implementation for stage %s", n))
		}
		defs = append(defs, StageDef{Name: n, Fn: fn})
	}
	rs.Log.Info("Run started", slog.String("kind", kind), logfields.Count(len(defs)))
	return o.complete(rs, o.runStages(ctx, rs, defs))
}

// prepare resolves the manifest and decides on math rendering. Nothing it
// does touches the working area.
func (o *Orchestrator) prepare(ctx context.Context, rs *RunState, resolve bool) error {
	if !resolve {
		return nil
	}
	m, err := o.resolver.Resolve(ctx, rs.Request.Query())
	if err != nil {
		return err
	}
	rs.Manifest = m
	rs.Report.ManifestSources = m.Sources
	rs.Report.Files = len(m.Files)
	if !m.FormatFound {
		rs.Report.AddIssue(IssueFormatNotFound, "", SeverityWarning,
			fmt.Sprintf("no metadata document defines format %s", m.Format), nil)
	}
	for _, w := range m.Warnings {
		rs.Report.AddIssue(IssueMetadata, "", SeverityWarning, w, nil)
	}

	math, err := MathEnabled(o.paths.Root, rs.Request, m)
	if err != nil {
		rs.Log.Warn("Could not read site config for math setting", logfields.Error(err))
	}
	rs.Math = math
	rs.Report.Math = math
	return nil
}

func (o *Orchestrator) complete(rs *RunState, err error) (*Report, error) {
	report := rs.Report
	if err != nil && len(report.Errors) == 0 {
		report.AddIssue(issueForRunError(err), "", SeverityError, err.Error(), err)
	}
	report.finish(o.now())
	o.observer.OnRunComplete(report)

	log := rs.Log.With(slog.String("outcome", string(report.Outcome)),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	switch report.Outcome {
	case OutcomeSuccess, OutcomeWarning:
		log.Info("Run complete", slog.Int("warnings", len(report.Warnings)))
	case OutcomeCanceled:
		log.Warn("Run canceled")
	default:
		log.Error("Run failed", slog.String("failed_stage", string(report.FailedStage)), logfields.Error(err))
	}
	if err != nil {
		return report, classifyRunError(err)
	}
	return report, nil
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error.
func (o *Orchestrator) runStages(ctx context.Context, rs *RunState, stages []StageDef) error {
	report := rs.Report
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			report.AddIssue(IssueCanceled, st.Name, SeverityError, se.Error(), se)
			report.recordStageResult(st.Name, StageResultCanceled, o.recorder)
			report.FailedStage = st.Name
			o.observer.OnStageComplete(report.RunID, st.Name, 0, StageResultCanceled, se)
			return se
		default:
		}
		o.observer.OnStageStart(report.RunID, st.Name)
		rs.Log.Debug("Stage started", logfields.Stage(string(st.Name)))
		t0 := time.Now()
		err := st.Fn(ctx, rs)
		dur := time.Since(t0)
		report.StageDurations[string(st.Name)] = dur

		out := classifyStageResult(st.Name, err)
		if out.Error != nil {
			report.AddIssue(out.IssueCode, out.Stage, out.Severity, out.Error.Error(), out.Error)
		}
		report.recordStageResult(st.Name, out.Result, o.recorder)
		o.observer.OnStageComplete(report.RunID, st.Name, dur, out.Result, err)
		rs.Log.Debug("Stage complete",
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Milliseconds())),
			slog.String("result", string(out.Result)))
		if out.Abort {
			report.FailedStage = st.Name
			return out.Error
		}
	}
	return nil
}

func issueForRunError(err error) ReportIssueCode {
	switch {
	case errors.Is(err, metadata.ErrManifestNotFound):
		return IssueManifestNotFound
	case errors.Is(err, metadata.ErrMalformed), errors.Is(err, metadata.ErrInvalidName):
		return IssueMetadata
	case errors.Is(err, context.Canceled):
		return IssueCanceled
	default:
		return IssueGenericStageError
	}
}
