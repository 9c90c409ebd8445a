package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall(t *testing.T) {
	h := newHarness(t, t.TempDir())
	report, err := h.orch.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "install", report.Kind)

	cmds := h.runner.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "bundle", cmds[0].Binary)
	assert.Equal(t, []string{"install"}, cmds[0].Args)
	assert.Equal(t, "npm", cmds[1].Binary)
	assert.Equal(t, h.root, cmds[1].Dir)
}

func TestProcessImages(t *testing.T) {
	h := newHarness(t, t.TempDir())
	writeFile(t, h.root, "_site/keep.html", "x")

	_, err := h.orch.ProcessImages(context.Background(), "novel", "fr")
	require.NoError(t, err)
	cmd := commandNamed(t, h.runner, "process-images")
	assert.Equal(t, "gulp", cmd.Binary)
	assert.Equal(t, []string{"--book", "novel", "--language", "fr"}, cmd.Args)
	assert.FileExists(t, h.site("keep.html"), "image processing leaves the site alone")

	_, err = h.orch.ProcessImages(context.Background(), "../novel", "")
	require.Error(t, err)
}

func TestRefreshIndexes(t *testing.T) {
	h := newHarness(t, novelProject(t))
	report, err := h.orch.RefreshIndexes(context.Background(), Request{Work: "novel", Format: FormatWeb})
	require.NoError(t, err)
	assert.Equal(t, "refresh-index", report.Kind)
	assert.Equal(t, []string{"generate-site", "build-reference-index", "build-search-index"}, h.runner.Names())

	gen := commandNamed(t, h.runner, "generate-site")
	assert.Equal(t, "build", gen.Args[2], "indexes need a build, not a server")
	idx := commandNamed(t, h.runner, "build-search-index")
	assert.Equal(t, []string{"index:search", "--book", "novel"}, idx.Args)
}

func TestCheckProject(t *testing.T) {
	h := newHarness(t, novelProject(t))
	h.cfg.Tools.Prince = "definitely-not-installed-prince"

	res := h.orch.CheckProject(FormatPrintPDF)
	byName := map[string]bool{}
	for _, p := range res.Paths {
		byName[p.Name] = p.Exists
	}
	assert.True(t, byName["works"])
	assert.True(t, byName["site config"])
	assert.False(t, byName["configs"])
	assert.False(t, res.OK())

	var prince bool
	for _, s := range res.Tools {
		if s.Name == "prince" {
			prince = true
			assert.False(t, s.Available)
			assert.NotEmpty(t, s.Guidance)
		}
	}
	assert.True(t, prince)
}
