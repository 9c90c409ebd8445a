package commands

import (
	"context"
	"time"

	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
	"git.home.luguber.info/inful/bookbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Format string `arg:"" enum:"print-pdf,screen-pdf,epub,app" help:"Output format to rebuild (${enum})"`
	WorkFlags
	SiteFlags
	Debounce time.Duration `help:"Quiet period before a rebuild (defaults to watch.debounce)"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := newRuntime(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	format, err := pipeline.ParseFormat(w.Format)
	if err != nil {
		return foundationerrors.ValidationError(err.Error()).Build()
	}
	req := w.SiteFlags.apply(pipeline.Request{
		Work:     w.Work,
		Format:   format,
		Language: w.Language,
		Variant:  variantFor(rt.cfg, w.Variant),
	})
	if err := req.Validate(); err != nil {
		return err
	}

	debounce := rt.cfg.Watch.Debounce
	if w.Debounce > 0 {
		debounce = w.Debounce
	}
	paths := make([]string, 0, len(rt.cfg.Watch.Paths))
	for _, p := range rt.cfg.Watch.Paths {
		paths = append(paths, rt.cfg.Abs(p))
	}

	site := rt.orch.Paths()
	watcher, err := watch.New(paths, debounce, func(ctx context.Context) error {
		report, err := rt.orch.Run(ctx, req)
		return rt.finish(report, err)
	},
		watch.WithLogger(rt.logger),
		watch.WithIgnore(baseName(site.Site), baseName(site.Output), ".bookbuilder", ".git", "node_modules"),
	)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
