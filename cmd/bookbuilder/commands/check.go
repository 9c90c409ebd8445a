package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Format string `arg:"" optional:"" help:"Only check the tools this format needs"`
}

func (c *CheckCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	rt, err := newRuntime(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	var format pipeline.Format
	if c.Format != "" {
		if format, err = pipeline.ParseFormat(c.Format); err != nil {
			return foundationerrors.ValidationError(err.Error()).Build()
		}
	}
	res := rt.orch.CheckProject(format)
	fmt.Println(renderCheck(res))
	if res.OK() {
		fmt.Println("Project is ready")
		return nil
	}
	return foundationerrors.DependencyError("project is not ready to build").
		WithHint("install the missing tools or create the missing folders listed above").
		UserAction().
		Build()
}

func renderCheck(res pipeline.CheckResult) string {
	rows := make([][]string, 0, len(res.Paths)+len(res.Tools))
	for _, p := range res.Paths {
		status := "ok"
		if !p.Exists {
			status = "missing"
		}
		rows = append(rows, []string{"path", p.Name, status, p.Path})
	}
	for _, t := range res.Tools {
		status := "ok"
		detail := t.Detail
		switch {
		case !t.Available && t.Optional:
			status = "optional"
			detail = t.Guidance
		case !t.Available:
			status = "missing"
			detail = t.Guidance
		}
		rows = append(rows, []string{"tool", t.Name, status, detail})
	}
	return renderTable([]string{"Kind", "Name", "Status", "Detail"}, rows, nil)
}

// WorksCmd implements the 'works' command.
type WorksCmd struct{}

func (w *WorksCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store := metadata.NewFileStore(cfg.Abs(cfg.Project.WorksDir))
	works, err := store.Works()
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryMetadata, "failed to list works").
			WithContext("path", store.Root).
			Build()
	}
	if len(works) == 0 {
		fmt.Println("No works found in", store.Root)
		return nil
	}

	rows := make([][]string, 0, len(works))
	for _, work := range works {
		langs, err := store.Languages(work)
		if err != nil {
			g.Logger.Warn("Failed to list translations", "work", work, "error", err)
		}
		formats := "-"
		if doc, err := store.Default(work); err == nil && doc != nil {
			f := doc.Formats()
			slices.Sort(f)
			formats = strings.Join(f, ", ")
		}
		rows = append(rows, []string{work, strings.Join(langs, ", "), formats})
	}
	fmt.Println(renderTable([]string{"Work", "Translations", "Formats"}, rows, nil))
	return nil
}
