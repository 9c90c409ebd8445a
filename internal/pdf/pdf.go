// Package pdf builds PDF engine invocations and checks the installed engine.
package pdf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/stage"
)

// DefaultTimeout bounds a render; large books take a while.
const DefaultTimeout = 100 * time.Second

// Options configures a render.
type Options struct {
	Binary      string
	Timeout     time.Duration
	LicenseFile string
}

// Command builds the render command for inputs in spine order.
func Command(opts Options, inputs []string, output string) stage.Command {
	binary := opts.Binary
	if binary == "" {
		binary = "prince"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	args := []string{"--javascript", "--verbose"}
	if opts.LicenseFile != "" {
		args = append(args, "--license-file="+opts.LicenseFile)
	}
	args = append(args, "--output="+output)
	args = append(args, inputs...)
	return stage.Command{Name: "render-pdf", Binary: binary, Args: args, Timeout: timeout}
}

// PackageSettings is the engine section of a project's package.json.
type PackageSettings struct {
	License string
	Version string
}

type packageJSON struct {
	Prince struct {
		License string `json:"license"`
		Licence string `json:"licence"`
		Version string `json:"version"`
	} `json:"prince"`
}

// ReadPackageSettings reads the prince section of package.json. Either
// spelling of the license key is accepted. A missing file yields zero values.
func ReadPackageSettings(path string) (PackageSettings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return PackageSettings{}, nil
	}
	if err != nil {
		return PackageSettings{}, fmt.Errorf("read %s: %w", path, err)
	}
	var p packageJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return PackageSettings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	s := PackageSettings{License: p.Prince.License, Version: p.Prince.Version}
	if s.License == "" {
		s.License = p.Prince.Licence
	}
	return s, nil
}

// LicenseFile returns the first candidate that exists, resolved against root.
func LicenseFile(root string, candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		p := c
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

var versionPattern = regexp.MustCompile(`^Prince\s+(\d+(?:\.\d+)?)`)

// ParseVersion extracts the engine version from `prince --version` output.
func ParseVersion(output string) (string, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(output))
	if m == nil {
		return "", fmt.Errorf("unexpected version output: %q", output)
	}
	return m[1], nil
}

// InstalledVersion asks the engine for its version.
func InstalledVersion(ctx context.Context, r stage.Runner, binary string) (string, error) {
	if binary == "" {
		binary = "prince"
	}
	var lines []string
	_, err := stage.Run(ctx, r, stage.Command{
		Name:    "pdf-version",
		Binary:  binary,
		Args:    []string{"--version"},
		Timeout: 10 * time.Second,
		Sink: func(_ string, s stage.Stream, line string) {
			if s == stage.Stdout {
				lines = append(lines, line)
			}
		},
	})
	if err != nil {
		return "", err
	}
	return ParseVersion(strings.Join(lines, "\n"))
}
