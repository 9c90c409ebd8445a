package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	require.NoError(t, os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "PDF engine", Command: "prince-not-installed-here"},
		{Name: "Emulator", Command: "", Optional: true},
	}

	results := CheckBinaries(reqs)
	require.Len(t, results, len(reqs))

	assert.True(t, results[0].Available)
	assert.Empty(t, results[0].Detail)

	assert.False(t, results[1].Available)
	assert.Contains(t, results[1].Detail, "not found")
	assert.NotEmpty(t, results[1].Guidance)

	assert.Equal(t, "command not configured", results[2].Detail)

	missing := Missing(results)
	require.Len(t, missing, 1)
	assert.Equal(t, "PDF engine", missing[0].Name)
}

func TestGuidance(t *testing.T) {
	assert.Contains(t, Guidance("/usr/local/bin/prince"), "princexml.com")
	assert.Contains(t, Guidance("pandoc"), "pandoc.org")
	assert.Contains(t, Guidance("unknown-tool"), "unknown-tool")
}
