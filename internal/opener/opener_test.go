package opener

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/stage/stagetest"
)

func TestLauncher(t *testing.T) {
	b, _ := launcher("darwin")
	assert.Equal(t, "open", b)
	b, args := launcher("windows")
	assert.Equal(t, "rundll32", b)
	assert.Len(t, args, 1)
	b, _ = launcher("linux")
	assert.Equal(t, "xdg-open", b)
}

func TestCommand_Override(t *testing.T) {
	r := stagetest.New()
	o := &Command{Runner: r, Binary: "evince"}
	require.NoError(t, o.Open(context.Background(), "/out/novel.pdf"))

	cmds := r.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "evince", cmds[0].Binary)
	assert.Equal(t, []string{"/out/novel.pdf"}, cmds[0].Args)
	assert.Equal(t, "open-result", cmds[0].Name)
}
