package epub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/stage"
)

// ReportSuffix is appended to the archive path to name the JSON report.
const ReportSuffix = "--epubcheck.json"

// Message is one epubcheck finding.
type Message struct {
	ID        string     `json:"ID"`
	Severity  string     `json:"severity"`
	Message   string     `json:"message"`
	Locations []Location `json:"locations"`
}

// Location points at the offending file.
type Location struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type report struct {
	Checker struct {
		NFatal   int    `json:"nFatal"`
		NError   int    `json:"nError"`
		NWarning int    `json:"nWarning"`
		NUsage   int    `json:"nUsage"`
		Version  string `json:"checkerVersion"`
	} `json:"checker"`
	Messages []Message `json:"messages"`
}

// ValidationResult summarizes an epubcheck report.
type ValidationResult struct {
	ReportPath string
	Fatal      int
	Errors     int
	Warnings   int
	Messages   []Message
	ExitCode   int
}

// HasFindings reports whether the validator produced any message.
func (r ValidationResult) HasFindings() bool { return len(r.Messages) > 0 }

// Validator runs epubcheck. Findings are advisory and never an error.
type Validator struct {
	Runner stage.Runner
	Binary string
	Logger *slog.Logger
}

// Validate checks archive and writes the JSON report next to it.
func (v *Validator) Validate(ctx context.Context, archive string) (ValidationResult, error) {
	res := ValidationResult{ReportPath: archive + ReportSuffix}
	_ = os.Remove(res.ReportPath)

	binary := v.Binary
	if binary == "" {
		binary = "epubcheck"
	}
	status, err := v.Runner.Run(ctx, stage.Command{
		Name:   "validate-epub",
		Binary: binary,
		Args:   []string{archive, "--json", res.ReportPath},
	})
	if err != nil {
		return res, err
	}
	res.ExitCode = status.Code

	data, err := os.ReadFile(res.ReportPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && status.Code != 0 {
			return res, stage.Check(stage.Command{Name: "validate-epub", Binary: binary}, status)
		}
		return res, fmt.Errorf("read epubcheck report: %w", err)
	}
	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return res, fmt.Errorf("parse epubcheck report %s: %w", res.ReportPath, err)
	}
	res.Fatal = rep.Checker.NFatal
	res.Errors = rep.Checker.NError
	res.Warnings = rep.Checker.NWarning
	res.Messages = rep.Messages

	log := v.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("EPUB validated",
		logfields.Path(archive),
		slog.Int("fatal", res.Fatal),
		slog.Int("errors", res.Errors),
		slog.Int("warnings", res.Warnings))
	for _, m := range res.Messages {
		loc := ""
		if len(m.Locations) > 0 {
			loc = fmt.Sprintf("%s:%d:%d", m.Locations[0].Path, m.Locations[0].Line, m.Locations[0].Column)
		}
		log.Warn(m.Message, slog.String("id", m.ID), slog.String("severity", m.Severity), slog.String("location", loc))
	}
	return res, nil
}
