package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is the project configuration file looked up in the project root.
const DefaultFilename = "bookbuilder.yaml"

// Config represents the bookbuilder configuration for one project checkout.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Tools   ToolsConfig   `yaml:"tools"`
	PDF     PDFConfig     `yaml:"pdf"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ProjectConfig describes the on-disk layout of a book project.
// Relative paths are resolved against Root.
type ProjectConfig struct {
	Root       string `yaml:"root,omitempty"`
	DataDir    string `yaml:"data_dir,omitempty"`    // _data
	WorksDir   string `yaml:"works_dir,omitempty"`   // _data/works
	ConfigsDir string `yaml:"configs_dir,omitempty"` // _configs
	SiteDir    string `yaml:"site_dir,omitempty"`    // _site
	OutputDir  string `yaml:"output_dir,omitempty"`  // _output
	Lock       *bool  `yaml:"lock,omitempty"`        // hold a project lock while a run is active
}

// ToolsConfig names the external binaries each stage delegates to.
type ToolsConfig struct {
	Bundle    string `yaml:"bundle,omitempty"`
	Gulp      string `yaml:"gulp,omitempty"`
	Prince    string `yaml:"prince,omitempty"`
	Pandoc    string `yaml:"pandoc,omitempty"`
	Cordova   string `yaml:"cordova,omitempty"`
	Epubcheck string `yaml:"epubcheck,omitempty"`
	Npm       string `yaml:"npm,omitempty"`
	Opener    string `yaml:"opener,omitempty"` // empty selects the platform default
}

// PDFConfig controls the PDF rendering stage.
type PDFConfig struct {
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	License     string        `yaml:"license,omitempty"`
	Version     string        `yaml:"version,omitempty"` // required engine version; mismatch is a warning
	PackageJSON string        `yaml:"package_json,omitempty"`
}

// OutputConfig controls what happens with finished artifacts.
type OutputConfig struct {
	Open *bool `yaml:"open,omitempty"`
}

// HistoryConfig enables the SQLite run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// NotifyConfig enables publishing run events to NATS JetStream.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig controls Prometheus metric export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path,omitempty"`
}

// WatchConfig controls the rebuild-on-change loop.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Paths    []string      `yaml:"paths,omitempty"`
}

// Load loads configuration from configPath. A missing file is not an error:
// defaults are applied and Project.Root is set to the file's directory.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if cfg.Project.Root == "" {
		cfg.Project.Root = filepath.Dir(configPath)
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(filepath.Dir(configPath), cfg.Project.Root)
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with defaults applied for root.
func Default(root string) *Config {
	cfg := &Config{Project: ProjectConfig{Root: root}}
	_ = applyDefaults(cfg)
	return cfg
}

// Validate checks values defaults cannot repair.
func (c *Config) Validate() error {
	if c.PDF.Timeout < 0 {
		return fmt.Errorf("pdf.timeout must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	return nil
}

// OpenResults reports whether finished artifacts are opened in a viewer.
func (c *Config) OpenResults() bool {
	return c.Output.Open == nil || *c.Output.Open
}

// LockEnabled reports whether runs take the project lock.
func (c *Config) LockEnabled() bool {
	return c.Project.Lock == nil || *c.Project.Lock
}

// Abs resolves p against the project root unless it is already absolute.
func (c *Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Project.Root, p)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Tools: ToolsConfig{Bundle: "bundle", Gulp: "gulp", Prince: "prince", Pandoc: "pandoc", Cordova: "cordova", Epubcheck: "epubcheck"},
		PDF:   PDFConfig{Timeout: defaultPDFTimeout},
		History: HistoryConfig{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Watch: WatchConfig{Debounce: defaultDebounce, Paths: []string{"_data", "book"}},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
