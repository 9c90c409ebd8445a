package pipeline

import (
	"fmt"
	"strings"
)

// Format is an output format.
type Format string

const (
	FormatWeb       Format = "web"
	FormatPrintPDF  Format = "print-pdf"
	FormatScreenPDF Format = "screen-pdf"
	FormatEpub      Format = "epub"
	FormatApp       Format = "app"
	FormatWord      Format = "word"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatWeb, FormatPrintPDF, FormatScreenPDF, FormatEpub, FormatApp, FormatWord}
}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", s, formatList())
}

// IsPDF reports whether f renders through the PDF engine.
func (f Format) IsPDF() bool { return f == FormatPrintPDF || f == FormatScreenPDF }

func (f Format) String() string { return string(f) }

func formatList() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
