package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ClearSiteKeepsOutput(t *testing.T) {
	root := t.TempDir()
	site := filepath.Join(root, "_site")
	out := filepath.Join(root, "_output")
	require.NoError(t, os.MkdirAll(filepath.Join(site, "novel"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "novel", "01.html"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "novel.epub"), []byte("e"), 0o644))

	m := NewManager(root, site, out)
	require.NoError(t, m.ClearSite())
	require.NoError(t, m.EnsureOutput())

	entries, err := os.ReadDir(site)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = os.Stat(filepath.Join(out, "novel.epub"))
	assert.NoError(t, err)
}

func TestManager_ClearSiteCreatesMissing(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, filepath.Join(root, "_site"), filepath.Join(root, "_output"))
	require.NoError(t, m.ClearSite())
	_, err := os.Stat(filepath.Join(root, "_site"))
	assert.NoError(t, err)

	require.NoError(t, m.EnsureOutput())
	_, err = os.Stat(filepath.Join(root, "_output"))
	assert.NoError(t, err)
}

func TestManager_LockExcludesSecondRun(t *testing.T) {
	root := t.TempDir()
	first := NewManager(root, filepath.Join(root, "_site"), filepath.Join(root, "_output"))
	second := NewManager(root, filepath.Join(root, "_site"), filepath.Join(root, "_output"))

	require.NoError(t, first.Acquire())
	err := second.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
	require.NoError(t, second.Release())
}
