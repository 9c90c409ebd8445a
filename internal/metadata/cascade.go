package metadata

import (
	"fmt"
	"path/filepath"
)

// Manifest is the resolved file list and settings for one build.
type Manifest struct {
	Work     string
	Format   string
	Language string
	Variant  string
	Files    []ContentUnit
	Settings map[string]any
	// Sources lists every document consulted, least specific first.
	Sources []string
	// FilesFrom is the document whose files list won.
	FilesFrom string
	// FormatFound is false when no consulted document defines Format.
	FormatFound bool
	// Warnings are data problems worth surfacing but not fatal.
	Warnings []string
}

// Cascade resolves format across the default, translation and variant
// documents. Any of translation and variant may be nil. It performs no I/O.
func Cascade(format string, base, translation, variant *Document) Manifest {
	m := Manifest{Format: format, Files: []ContentUnit{}}
	for _, doc := range []*Document{base, translation, variant} {
		if doc == nil {
			continue
		}
		m.Sources = append(m.Sources, doc.Path)
		spec, ok := doc.Product(format)
		if !ok {
			continue
		}
		m.FormatFound = true
		if spec.HasFiles {
			m.Files = append([]ContentUnit(nil), spec.Files...)
			m.FilesFrom = doc.Path
		}
		m.Settings = mergeSettings(m.Settings, spec.Settings)
	}
	switch {
	case !m.FormatFound:
		m.Warnings = append(m.Warnings, fmt.Sprintf("format %q is not defined in any metadata document", format))
	case m.FilesFrom == "":
		m.Warnings = append(m.Warnings, fmt.Sprintf("format %q has no files list in any metadata document", format))
	}
	return m
}

// Paths returns the generated file path of every unit under siteDir.
func (m Manifest) Paths(siteDir, ext string) []string {
	dir := filepath.Join(siteDir, m.Work)
	if m.Language != "" {
		dir = filepath.Join(dir, m.Language)
	}
	out := make([]string, len(m.Files))
	for i, u := range m.Files {
		out[i] = filepath.Join(dir, u.FileName(ext))
	}
	return out
}

// BoolSetting reports whether key is set to true.
func (m Manifest) BoolSetting(key string) bool {
	v, ok := m.Settings[key].(bool)
	return ok && v
}
