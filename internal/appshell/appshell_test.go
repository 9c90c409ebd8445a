package appshell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	site := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(site, "novel"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "novel", "01.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(site, "index.html"), []byte("i"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(site, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "app", "config.xml"), []byte("<widget/>"), 0o644))

	n, err := Assemble(site)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, rel := range []string{"app/www/index.html", "app/www/novel/01.html", "app/config.xml"} {
		_, err := os.Stat(filepath.Join(site, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}
	_, err = os.Stat(filepath.Join(site, "index.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestPackagerArgs(t *testing.T) {
	assert.Equal(t, [][]string{
		{"platform", "add", "android"},
		{"prepare", "android"},
		{"build", "android", "--release"},
		{"emulate", "android"},
	}, PackagerArgs("android", true, true))

	assert.Len(t, PackagerArgs("ios", false, false), 3)
}
