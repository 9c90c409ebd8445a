package pipeline

import (
	"path/filepath"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
)

// Paths holds the absolute project folders a run touches.
type Paths struct {
	Root    string
	Data    string
	Works   string
	Configs string
	Site    string
	Output  string
}

// PathsFromConfig resolves the project layout.
func PathsFromConfig(cfg *config.Config) Paths {
	return Paths{
		Root:    cfg.Project.Root,
		Data:    cfg.Abs(cfg.Project.DataDir),
		Works:   cfg.Abs(cfg.Project.WorksDir),
		Configs: cfg.Abs(cfg.Project.ConfigsDir),
		Site:    cfg.Abs(cfg.Project.SiteDir),
		Output:  cfg.Abs(cfg.Project.OutputDir),
	}
}

// OutputName is the artifact file name for a request:
// <work>[-<lang>]-<format>.pdf for PDFs and <work>.epub for EPUB.
func OutputName(req Request) string {
	if req.Format == FormatEpub {
		return req.Work + ".epub"
	}
	name := req.Work
	if req.Language != "" {
		name += "-" + req.Language
	}
	return name + "-" + string(req.Format) + ".pdf"
}

// OutputFile is the absolute artifact path for a request.
func (p Paths) OutputFile(req Request) string {
	return filepath.Join(p.Output, OutputName(req))
}

// EpubContainer is the uncompressed container folder the site generator writes.
func (p Paths) EpubContainer() string { return filepath.Join(p.Site, "epub") }
