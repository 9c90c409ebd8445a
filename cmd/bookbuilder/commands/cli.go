package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
)

const defaultConfigFile = "bookbuilder.yaml"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path, relative to the project folder" default:"bookbuilder.yaml"`
	Project string           `short:"p" help:"Project folder (defaults to the current directory)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Output       OutputCmd       `cmd:"" help:"Build a work in one output format"`
	Export       ExportCmd       `cmd:"" help:"Export a work's pages to Word documents"`
	Check        CheckCmd        `cmd:"" help:"Check the project layout and required tools"`
	Works        WorksCmd        `cmd:"" help:"List works and their translations"`
	Images       ImagesCmd       `cmd:"" help:"Process a work's images"`
	Install      InstallCmd      `cmd:"" help:"Install Ruby gems and node modules"`
	RefreshIndex RefreshIndexCmd `cmd:"" name:"refresh-index" help:"Rebuild the reference and search indexes"`
	Watch        WatchCmd        `cmd:"" help:"Rebuild a format whenever sources change"`
	History      HistoryCmd      `cmd:"" help:"Show recent runs"`
	Init         InitCmd         `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// ConfigPath resolves --config against --project.
func (c *CLI) ConfigPath() string {
	path := c.Config
	if path == "" {
		path = defaultConfigFile
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.projectDir(), path)
}

func (c *CLI) projectDir() string {
	if c.Project != "" {
		return c.Project
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// parseLogLevel returns debug when verbose is set; otherwise
// BOOKBUILDER_LOG_LEVEL (debug|info|warn|error) picks the level.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("BOOKBUILDER_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
