package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
)

// Request describes one build. It is not modified once a run starts.
type Request struct {
	Work     string
	Format   Format
	Language string
	Variant  string
	// SourceFormat selects the file list and site config a word export
	// converts. It defaults to print-pdf.
	SourceFormat Format

	BaseURL     string
	Configs     []string // extra site config files under the configs folder
	Switches    []string // extra site generator switches, without leading dashes
	Incremental bool
	MathJax     bool

	AppOS      string
	AppBuild   bool
	AppRelease bool
	AppEmulate bool

	OpenResult bool
}

// Validate checks the request before any stage runs.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Work) == "" {
		problems = append(problems, "work is required")
	}
	if _, err := ParseFormat(string(r.Format)); err != nil {
		problems = append(problems, err.Error())
	}
	if r.Language != "" {
		if _, err := language.Parse(r.Language); err != nil {
			problems = append(problems, fmt.Sprintf("invalid language %q: %v", r.Language, err))
		}
	}
	if r.Format == FormatWord && r.SourceFormat != "" {
		if _, err := ParseFormat(string(r.SourceFormat)); err != nil || r.SourceFormat == FormatWord {
			problems = append(problems, fmt.Sprintf("invalid export source format %q", r.SourceFormat))
		}
	}
	if r.Format == FormatApp && (r.AppBuild || r.AppEmulate) && strings.TrimSpace(r.AppOS) == "" {
		problems = append(problems, "app platform is required to build the app")
	}
	if r.AppEmulate && !r.AppBuild {
		problems = append(problems, "emulating the app requires building it")
	}
	for _, c := range r.Configs {
		if strings.Contains(c, "..") {
			problems = append(problems, fmt.Sprintf("config %q must stay inside the configs folder", c))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return foundationerrors.ValidationError("invalid build request: "+strings.Join(problems, "; ")).
		WithContext("work", r.Work).
		WithContext("format", string(r.Format)).
		Build()
}

// ProductFormat is the metadata product whose file list the build uses.
func (r Request) ProductFormat() Format {
	if r.Format != FormatWord {
		return r.Format
	}
	if r.SourceFormat == "" {
		return FormatPrintPDF
	}
	return r.SourceFormat
}

// Query converts the request into a metadata query.
func (r Request) Query() metadata.Query {
	return metadata.Query{
		Work:     r.Work,
		Format:   string(r.ProductFormat()),
		Language: r.Language,
		Variant:  r.Variant,
	}
}
