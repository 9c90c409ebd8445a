package config

import (
	"fmt"
	"path/filepath"
	"time"
)

const (
	defaultPDFTimeout  = 100 * time.Second // large books need it
	defaultDebounce    = 2 * time.Second
	defaultHistoryPath = ".bookbuilder/history.db"
	defaultSubject     = "bookbuilder.runs"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ProjectDefaultApplier handles the project layout.
type ProjectDefaultApplier struct{}

func (ProjectDefaultApplier) Domain() string { return "project" }

func (ProjectDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Project
	if p.Root == "" {
		p.Root = "."
	}
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	p.Root = root
	setDefault(&p.DataDir, "_data")
	setDefault(&p.WorksDir, filepath.Join(p.DataDir, "works"))
	setDefault(&p.ConfigsDir, "_configs")
	setDefault(&p.SiteDir, "_site")
	setDefault(&p.OutputDir, "_output")
	return nil
}

// ToolsDefaultApplier fills in binary names.
type ToolsDefaultApplier struct{}

func (ToolsDefaultApplier) Domain() string { return "tools" }

func (ToolsDefaultApplier) ApplyDefaults(cfg *Config) error {
	t := &cfg.Tools
	setDefault(&t.Bundle, "bundle")
	setDefault(&t.Gulp, "gulp")
	setDefault(&t.Prince, "prince")
	setDefault(&t.Pandoc, "pandoc")
	setDefault(&t.Cordova, "cordova")
	setDefault(&t.Epubcheck, "epubcheck")
	setDefault(&t.Npm, "npm")
	return nil
}

// PDFDefaultApplier handles PDF rendering defaults.
type PDFDefaultApplier struct{}

func (PDFDefaultApplier) Domain() string { return "pdf" }

func (PDFDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.PDF.Timeout == 0 {
		cfg.PDF.Timeout = defaultPDFTimeout
	}
	setDefault(&cfg.PDF.PackageJSON, "package.json")
	return nil
}

// ServicesDefaultApplier handles history, notification and watch defaults.
type ServicesDefaultApplier struct{}

func (ServicesDefaultApplier) Domain() string { return "services" }

func (ServicesDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.History.Path, defaultHistoryPath)
	setDefault(&cfg.Notify.Subject, defaultSubject)
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{cfg.Project.DataDir}
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	appliers := []DefaultApplier{
		ProjectDefaultApplier{},
		ToolsDefaultApplier{},
		PDFDefaultApplier{},
		ServicesDefaultApplier{},
	}
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("apply %s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
