// Package wordexport converts generated HTML pages to word-processor documents.
package wordexport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/batch"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/stage"
)

// rsvgNoise is pandoc's advice about SVG conversion, irrelevant for plain documents.
const rsvgNoise = "check that rsvg-convert is in path"

// Converter runs pandoc once per page.
type Converter struct {
	Runner stage.Runner
	Binary string
	// Concurrency bounds the conversions in flight; zero uses the CPU count.
	Concurrency int
	Logger      *slog.Logger
}

// Convert empties outDir and converts every file into it. The returned slice
// has one result per input in input order; a failed conversion is logged and
// recorded without stopping the rest. The error is reserved for an outDir
// that cannot be prepared.
func (c *Converter) Convert(ctx context.Context, files []string, outDir string) ([]batch.ItemResult, error) {
	if err := emptyDir(outDir); err != nil {
		return nil, err
	}
	log := c.logger()
	limit := c.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	sink := stage.FilterSink(stage.LogSink(log), rsvgNoise)

	results := batch.Run(ctx, files, limit, batch.Strings, func(ctx context.Context, file string) (string, error) {
		out := OutputPath(outDir, file)
		_, err := stage.Run(ctx, c.Runner, stage.Command{
			Name:   "convert-word",
			Binary: c.binary(),
			Args:   Args(file, out),
			Sink:   sink,
		})
		if err != nil {
			return "", err
		}
		return out, nil
	})

	for _, r := range results {
		if r.Err != nil {
			log.Warn("Problem converting HTML to Word", logfields.File(r.Item), logfields.Error(r.Err))
		}
	}
	log.Info("Conversion to Word complete",
		logfields.Path(outDir),
		logfields.Count(batch.Succeeded(results)),
		slog.Int("failed", len(results)-batch.Succeeded(results)))
	return results, nil
}

// Args builds the pandoc arguments for one page. The resource path points
// at the page's folder so relative images resolve.
func Args(in, out string) []string {
	return []string{
		"--resource-path=" + filepath.Dir(in),
		"-f", "html",
		"-t", "docx",
		"-s",
		"-o", out,
		in,
	}
}

// OutputPath names the document produced for an HTML page.
func OutputPath(outDir, in string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(outDir, base+".docx")
}

// OutputDir is the export folder for a work.
func OutputDir(outputRoot, work string) string {
	return filepath.Join(outputRoot, work+"--word")
}

func (c *Converter) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "pandoc"
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clear %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
