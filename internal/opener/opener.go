// Package opener hands finished files to the desktop's default viewer.
package opener

import (
	"context"
	"runtime"

	"git.home.luguber.info/inful/bookbuilder/internal/stage"
)

// Opener opens a file for the user.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Command opens files by running a viewer command through a stage runner.
type Command struct {
	Runner stage.Runner
	// Binary overrides the platform default.
	Binary string
}

// Open starts the viewer. It does not wait for the viewer to close on
// platforms whose launcher returns immediately.
func (c *Command) Open(ctx context.Context, path string) error {
	binary, args := launcher(runtime.GOOS)
	if c.Binary != "" {
		binary, args = c.Binary, nil
	}
	_, err := stage.Run(ctx, c.Runner, stage.Command{
		Name:   "open-result",
		Binary: binary,
		Args:   append(args, path),
	})
	return err
}

func launcher(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

// Noop never opens anything.
type Noop struct{}

func (Noop) Open(context.Context, string) error { return nil }
