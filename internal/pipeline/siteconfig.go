package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
)

const (
	mathSetting      = "mathjax-enabled"
	mathEnabledFile  = "_config.mathjax-enabled.yml"
	mathDisabledFile = "_config.math-disabled.yml"
)

// ConfigFiles lists the site generator config files for a request, relative
// to the project root with forward slashes, in load order.
func ConfigFiles(req Request) []string {
	files := []string{
		"_config.yml",
		path.Join("_configs", "_config."+string(req.ProductFormat())+".yml"),
	}
	for _, c := range req.Configs {
		c = strings.Trim(strings.TrimSpace(c), `'"`)
		if c != "" {
			files = append(files, path.Join("_configs", filepath.ToSlash(c)))
		}
	}
	if req.MathJax {
		files = append(files, path.Join("_configs", mathEnabledFile))
	}
	if req.Format == FormatWord {
		// editable TeX in word documents
		files = append(files, path.Join("_configs", mathDisabledFile))
	}
	return files
}

// GeneratorArgs builds `exec jekyll <command> --config ... [switches]`.
func GeneratorArgs(req Request, command string) []string {
	args := []string{"exec", "jekyll", command, "--config", strings.Join(ConfigFiles(req), ",")}
	if req.BaseURL != "" {
		args = append(args, "--baseurl", req.BaseURL)
	}
	if req.Incremental {
		args = append(args, "--incremental")
	}
	for _, s := range req.Switches {
		s = strings.TrimLeft(strings.Trim(strings.TrimSpace(s), `'"`), "-")
		if s != "" {
			args = append(args, "--"+s)
		}
	}
	return args
}

// MathEnabled reports whether math is rendered for this run: asked for on the
// request, set in the resolved product settings, or set in the merged site
// config.
func MathEnabled(root string, req Request, m metadata.Manifest) (bool, error) {
	if req.MathJax || m.BoolSetting(mathSetting) {
		return true, nil
	}
	merged, err := mergedSiteConfig(root, ConfigFiles(req))
	if err != nil {
		return false, err
	}
	v, ok := merged[mathSetting].(bool)
	return ok && v, nil
}

// mergedSiteConfig loads the config files in order; later top-level keys win.
// Missing files are skipped as the site generator would fail on them itself.
func mergedSiteConfig(root string, files []string) (map[string]any, error) {
	merged := map[string]any{}
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read site config %s: %w", f, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse site config %s: %w", f, err)
		}
		for k, v := range doc {
			merged[k] = v
		}
	}
	return merged, nil
}
