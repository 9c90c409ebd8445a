package pipeline

import (
	"context"
	"os"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/deps"
	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// RefreshIndexes regenerates the site and rebuilds the reference index, plus
// the search index for web and app output.
func (o *Orchestrator) RefreshIndexes(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return o.execute(ctx, "refresh-index", req, true, func(rs *RunState) []StageName {
		return RefreshPlan(rs.Request, rs.Math)
	})
}

// ProcessImages runs the image pipeline for a work, or for every work when
// work is empty.
func (o *Orchestrator) ProcessImages(ctx context.Context, work, language string) (*Report, error) {
	req := Request{Work: work, Language: language}
	if strings.ContainsAny(work, `/\`) || strings.Contains(work, "..") {
		return nil, foundationerrors.ValidationError("invalid work name: " + work).Build()
	}
	return o.execute(ctx, "images", req, false, func(*RunState) []StageName {
		return []StageName{StageProcessImages}
	})
}

// Install installs the project's Ruby and Node dependencies.
func (o *Orchestrator) Install(ctx context.Context) (*Report, error) {
	return o.execute(ctx, "install", Request{}, false, func(*RunState) []StageName {
		return []StageName{StageInstallGems, StageInstallNodeModules}
	})
}

// Requirements lists the external tools a format needs. An empty format
// lists every tool.
func (o *Orchestrator) Requirements(format Format) []deps.Requirement {
	t := o.cfg.Tools
	all := format == ""
	reqs := []deps.Requirement{
		{Name: "bundle", Command: t.Bundle, Description: "runs the site generator"},
		{Name: "gulp", Command: t.Gulp, Description: "runs index, image and xhtml tasks", Optional: format == FormatWeb || format == FormatWord},
	}
	if all || format.IsPDF() {
		reqs = append(reqs, deps.Requirement{Name: "prince", Command: t.Prince, Description: "renders PDF"})
	}
	if all || format == FormatEpub {
		reqs = append(reqs, deps.Requirement{Name: "epubcheck", Command: t.Epubcheck, Description: "validates EPUB"})
	}
	if all || format == FormatApp {
		reqs = append(reqs, deps.Requirement{Name: "cordova", Command: t.Cordova, Description: "packages the app", Optional: true})
	}
	if all || format == FormatWord {
		reqs = append(reqs, deps.Requirement{Name: "pandoc", Command: t.Pandoc, Description: "converts pages to Word"})
	}
	if all {
		reqs = append(reqs, deps.Requirement{Name: "npm", Command: t.Npm, Description: "installs node modules", Optional: true})
	}
	return reqs
}

// PathStatus reports whether a required project path exists.
type PathStatus struct {
	Name   string
	Path   string
	Exists bool
}

// CheckResult is the outcome of CheckProject.
type CheckResult struct {
	Paths []PathStatus
	Tools []deps.Status
}

// OK reports whether every required path and tool is present.
func (c CheckResult) OK() bool {
	for _, p := range c.Paths {
		if !p.Exists {
			return false
		}
	}
	return len(deps.Missing(c.Tools)) == 0
}

// CheckProject verifies the project layout and the tools a format needs.
func (o *Orchestrator) CheckProject(format Format) CheckResult {
	var res CheckResult
	for _, p := range []PathStatus{
		{Name: "data", Path: o.paths.Data},
		{Name: "works", Path: o.paths.Works},
		{Name: "configs", Path: o.paths.Configs},
		{Name: "site config", Path: o.cfg.Abs("_config.yml")},
	} {
		_, err := os.Stat(p.Path)
		p.Exists = err == nil
		res.Paths = append(res.Paths, p)
	}
	res.Tools = deps.CheckBinaries(o.Requirements(format))
	return res
}
