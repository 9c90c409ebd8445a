package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/metadata"
)

func TestConfigFiles(t *testing.T) {
	assert.Equal(t, []string{"_config.yml", "_configs/_config.epub.yml"},
		ConfigFiles(Request{Format: FormatEpub}))

	assert.Equal(t, []string{
		"_config.yml",
		"_configs/_config.print-pdf.yml",
		"_configs/_config.local.yml",
		"_configs/_config.mathjax-enabled.yml",
	}, ConfigFiles(Request{Format: FormatPrintPDF, Configs: []string{" '_config.local.yml' ", ""}, MathJax: true}))

	assert.Equal(t, []string{
		"_config.yml",
		"_configs/_config.screen-pdf.yml",
		"_configs/_config.math-disabled.yml",
	}, ConfigFiles(Request{Format: FormatWord, SourceFormat: FormatScreenPDF}))
}

func TestGeneratorArgs(t *testing.T) {
	req := Request{
		Format:      FormatWeb,
		BaseURL:     "/preview",
		Incremental: true,
		Switches:    []string{"--drafts", "future"},
	}
	assert.Equal(t, []string{
		"exec", "jekyll", "serve",
		"--config", "_config.yml,_configs/_config.web.yml",
		"--baseurl", "/preview",
		"--incremental",
		"--drafts", "--future",
	}, GeneratorArgs(req, "serve"))

	args := GeneratorArgs(Request{Format: FormatEpub}, "build")
	assert.NotContains(t, args, "--baseurl")
}

func TestMathEnabled(t *testing.T) {
	root := t.TempDir()
	m := metadata.Manifest{Settings: map[string]any{}}

	on, err := MathEnabled(root, Request{Format: FormatPrintPDF}, m)
	require.NoError(t, err)
	assert.False(t, on, "no config files and no settings")

	on, err = MathEnabled(root, Request{Format: FormatPrintPDF, MathJax: true}, m)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = MathEnabled(root, Request{Format: FormatPrintPDF}, metadata.Manifest{Settings: map[string]any{"mathjax-enabled": true}})
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, os.WriteFile(filepath.Join(root, "_config.yml"), []byte("mathjax-enabled: false\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "_configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "_configs", "_config.epub.yml"), []byte("mathjax-enabled: true\n"), 0o644))

	on, err = MathEnabled(root, Request{Format: FormatEpub}, m)
	require.NoError(t, err)
	assert.True(t, on, "later config file wins")

	on, err = MathEnabled(root, Request{Format: FormatPrintPDF}, m)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestMathEnabled_MalformedConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "_config.yml"), []byte("a: [\n"), 0o644))
	_, err := MathEnabled(root, Request{Format: FormatEpub}, metadata.Manifest{})
	require.Error(t, err)
}
