package commands

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

// WorkFlags select the work, translation and variant a command builds.
type WorkFlags struct {
	Work     string `short:"w" required:"" help:"Work folder name under the works directory"`
	Language string `short:"l" help:"Translation language code (omit for the parent language)"`
	Variant  string `help:"Variant name (defaults to active-variant in the project settings)"`
}

// SiteFlags tune the site generator invocation.
type SiteFlags struct {
	BaseURL     string   `name:"baseurl" help:"Base URL passed to the site generator"`
	Configs     []string `name:"site-config" help:"Extra site config file under the configs folder (repeatable)"`
	Switches    []string `name:"switch" help:"Extra site generator switch without leading dashes (repeatable)"`
	Incremental bool     `help:"Ask the site generator for an incremental build"`
	MathJax     bool     `name:"mathjax" help:"Pre-render MathJax for this build"`
}

// OutputCmd implements the 'output' command.
type OutputCmd struct {
	Format string `arg:"" enum:"print-pdf,screen-pdf,epub,web,app" help:"Output format (${enum})"`
	WorkFlags
	SiteFlags

	AppOS      string `name:"app-os" help:"Cordova platform to prepare, e.g. android or ios"`
	AppBuild   bool   `name:"app-build" help:"Build the app after preparing the platform"`
	AppRelease bool   `name:"app-release" help:"Build the app in release mode"`
	AppEmulate bool   `name:"app-emulate" help:"Run the built app in an emulator"`

	NoOpen bool `name:"no-open" help:"Do not open the result"`
}

func (o *OutputCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := newRuntime(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	req, err := o.request(rt.cfg)
	if err != nil {
		return err
	}
	report, err := rt.orch.Run(ctx, req)
	return rt.finish(report, err)
}

func (o *OutputCmd) request(cfg *config.Config) (pipeline.Request, error) {
	format, err := pipeline.ParseFormat(o.Format)
	if err != nil {
		return pipeline.Request{}, err
	}
	req := o.SiteFlags.apply(pipeline.Request{
		Work:       o.Work,
		Format:     format,
		Language:   o.Language,
		Variant:    variantFor(cfg, o.Variant),
		AppOS:      strings.ToLower(o.AppOS),
		AppBuild:   o.AppBuild,
		AppRelease: o.AppRelease,
		AppEmulate: o.AppEmulate,
		OpenResult: cfg.OpenResults() && !o.NoOpen,
	})
	return req, nil
}

func (s SiteFlags) apply(req pipeline.Request) pipeline.Request {
	req.BaseURL = s.BaseURL
	req.Configs = s.Configs
	req.Switches = s.Switches
	req.Incremental = s.Incremental
	req.MathJax = s.MathJax
	return req
}

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Target string `arg:"" optional:"" enum:"word" default:"word" help:"Export target (${enum})"`
	WorkFlags
	From string `name:"from" default:"print-pdf" enum:"print-pdf,screen-pdf,epub,web,app" help:"Format whose file list and site config are exported"`
}

func (e *ExportCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := newRuntime(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	report, err := rt.orch.Run(ctx, e.request(rt.cfg))
	return rt.finish(report, err)
}

func (e *ExportCmd) request(cfg *config.Config) pipeline.Request {
	return pipeline.Request{
		Work:         e.Work,
		Format:       pipeline.FormatWord,
		SourceFormat: pipeline.Format(e.From),
		Language:     e.Language,
		Variant:      variantFor(cfg, e.Variant),
	}
}

// RefreshIndexCmd implements the 'refresh-index' command.
type RefreshIndexCmd struct {
	Format string `arg:"" optional:"" default:"web" enum:"print-pdf,screen-pdf,epub,web,app" help:"Format whose indexes are rebuilt"`
	WorkFlags
	SiteFlags
}

func (r *RefreshIndexCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := newRuntime(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	format, err := pipeline.ParseFormat(r.Format)
	if err != nil {
		return err
	}
	req := r.SiteFlags.apply(pipeline.Request{
		Work:     r.Work,
		Format:   format,
		Language: r.Language,
		Variant:  variantFor(rt.cfg, r.Variant),
	})
	report, err := rt.orch.RefreshIndexes(ctx, req)
	return rt.finish(report, err)
}

// ImagesCmd implements the 'images' command.
type ImagesCmd struct {
	Work     string `short:"w" help:"Work folder name (omit to process every work)"`
	Language string `short:"l" help:"Translation language code"`
}

func (i *ImagesCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := newRuntime(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	report, err := rt.orch.ProcessImages(ctx, i.Work, i.Language)
	return rt.finish(report, err)
}

// InstallCmd implements the 'install' command.
type InstallCmd struct{}

func (i *InstallCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := newRuntime(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	report, err := rt.orch.Install(ctx)
	return rt.finish(report, err)
}
