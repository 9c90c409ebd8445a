package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectSettings mirrors the subset of _data/settings.yml the pipeline reads.
type ProjectSettings struct {
	ActiveVariant string `yaml:"active-variant"`
}

// SettingsPath returns the location of the project settings document.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Abs(c.Project.DataDir), "settings.yml")
}

// LoadSettings reads the project settings document. A missing file yields
// empty settings.
func LoadSettings(path string) (ProjectSettings, error) {
	var s ProjectSettings
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.ActiveVariant = strings.TrimSpace(s.ActiveVariant)
	return s, nil
}
