package wordexport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/batch"
	"git.home.luguber.info/inful/bookbuilder/internal/stage"
	"git.home.luguber.info/inful/bookbuilder/internal/stage/stagetest"
)

func TestConvert_PartialFailureContinues(t *testing.T) {
	site := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "novel--word")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "stale.docx"), []byte("old"), 0o644))

	var files []string
	for _, n := range []string{"01", "02", "03", "04", "05"} {
		files = append(files, filepath.Join(site, "novel", n+".html"))
	}

	runner := stagetest.New()
	runner.OnRun = func(cmd stage.Command) stagetest.Result {
		in := cmd.Args[len(cmd.Args)-1]
		if strings.HasSuffix(in, "03.html") {
			return stagetest.Result{Code: 64, Stderr: []string{"pandoc: cannot parse"}}
		}
		out := cmd.Args[len(cmd.Args)-2]
		_ = os.WriteFile(out, []byte("docx"), 0o644)
		return stagetest.Result{Stderr: []string{"[WARNING] check that rsvg-convert is in path"}}
	}

	c := &Converter{Runner: runner, Concurrency: 2}
	results, err := c.Convert(context.Background(), files, outDir)
	require.NoError(t, err)

	require.Len(t, results, 5)
	assert.Equal(t, 4, batch.Succeeded(results))
	failed := batch.Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, files[2], failed[0].Item)
	assert.ErrorIs(t, failed[0].Err, stage.ErrExitFailure)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	_, err = os.Stat(filepath.Join(outDir, "stale.docx"))
	assert.True(t, os.IsNotExist(err))
	assert.Len(t, runner.Commands(), 5)
}

func TestArgs(t *testing.T) {
	in := filepath.Join("_site", "novel", "01.html")
	out := OutputPath(filepath.Join("_output", "novel--word"), in)
	assert.Equal(t, filepath.Join("_output", "novel--word", "01.docx"), out)
	assert.Equal(t, []string{
		"--resource-path=" + filepath.Join("_site", "novel"),
		"-f", "html", "-t", "docx", "-s", "-o", out, in,
	}, Args(in, out))
	assert.Equal(t, filepath.Join("_output", "novel--word"), OutputDir("_output", "novel"))
}

func TestConvert_EmptyInput(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "w")
	results, err := (&Converter{Runner: stagetest.New()}).Convert(context.Background(), nil, outDir)
	require.NoError(t, err)
	assert.Empty(t, results)
	_, err = os.Stat(outDir)
	assert.NoError(t, err)
}
