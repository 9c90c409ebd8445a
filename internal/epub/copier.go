package epub

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/bookbuilder/internal/batch"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// CopyItem copies Source into DestDir, relative to the container folder. A
// directory source contributes its contents, a file keeps its base name.
type CopyItem struct {
	Source  string
	DestDir string
}

// Layout describes where a work's generated files live.
type Layout struct {
	SiteDir  string
	Work     string
	Language string
	// Pages are the generated content pages in spine order.
	Pages   []string
	MathJax bool
}

// ContainerDir is the uncompressed container folder.
func (l Layout) ContainerDir() string { return filepath.Join(l.SiteDir, "epub") }

// Items lists what goes into the container. Optional inputs that do not exist
// are left out; required ones are always listed so a missing file shows up as
// a failed item.
func Items(l Layout) []CopyItem {
	var items []CopyItem
	for _, p := range l.Pages {
		items = append(items, CopyItem{Source: p, DestDir: l.Work})
	}
	add := func(src, dest string) {
		if src != "" {
			items = append(items, CopyItem{Source: src, DestDir: dest})
		}
	}
	add(assetDir(l.SiteDir, l.Work, l.Language, "images", "epub"), slashJoin(l.Work, "images", "epub"))
	add(assetDir(l.SiteDir, l.Work, l.Language, "styles", ""), slashJoin(l.Work, "styles"))
	add(assetDir(l.SiteDir, "assets", l.Language, "images", "epub"), slashJoin("assets", "images", "epub"))

	if bundle := filepath.Join(l.SiteDir, "assets", "js", "bundle.js"); exists(bundle) {
		add(bundle, slashJoin("assets", "js"))
	}
	if l.MathJax {
		add(filepath.Join(l.SiteDir, "assets", "js", "mathjax"), slashJoin("assets", "js", "mathjax"))
	}
	add(preferTranslated(l, "package.opf"), "")
	if ncx := preferTranslated(l, "toc.ncx"); exists(ncx) {
		add(ncx, "")
	}
	return items
}

// Copier copies items into a container folder.
type Copier struct {
	ContainerDir string
	Logger       *slog.Logger
}

// Copy copies every item and returns one result per item. Failures are
// logged and do not stop the batch.
func (c *Copier) Copy(ctx context.Context, items []CopyItem) []batch.ItemResult {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	results := batch.Run(ctx, items, 1, func(it CopyItem) string { return it.Source }, func(ctx context.Context, it CopyItem) (string, error) {
		dest := filepath.Join(c.ContainerDir, filepath.FromSlash(it.DestDir))
		return dest, copyInto(it.Source, dest)
	})
	for _, r := range results {
		if r.Err != nil {
			log.Warn("Could not copy to epub folder", logfields.Path(r.Item), logfields.Error(r.Err))
			continue
		}
		log.Debug("Copied to epub folder", logfields.Path(r.Item))
	}
	return results
}

func copyInto(src, destDir string) error {
	st, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if !st.IsDir() {
		return copyFile(src, filepath.Join(destDir, filepath.Base(src)))
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

// assetDir prefers a non-empty translated asset folder over the parent one.
// It returns "" when neither exists.
func assetDir(site, owner, lang, assetType, sub string) string {
	if lang != "" {
		translated := filepath.Join(site, owner, lang, assetType, sub)
		if entries, err := os.ReadDir(translated); err == nil && len(entries) > 0 {
			return translated
		}
	}
	parent := filepath.Join(site, owner, assetType, sub)
	if exists(parent) {
		return parent
	}
	return ""
}

func preferTranslated(l Layout, name string) string {
	if l.Language != "" {
		if p := filepath.Join(l.SiteDir, l.Work, l.Language, name); exists(p) {
			return p
		}
	}
	return filepath.Join(l.SiteDir, l.Work, name)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func slashJoin(parts ...string) string { return filepath.ToSlash(filepath.Join(parts...)) }
