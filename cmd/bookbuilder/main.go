package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bookbuilder/cmd/bookbuilder/commands"
	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli := &commands.CLI{}
	global := &commands.Global{Logger: slog.Default()}
	parser := kong.Parse(cli,
		kong.Name("bookbuilder"),
		kong.Description("Build print PDF, screen PDF, EPUB, web, app and Word outputs of a book project."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global, cli),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := parser.Run(cli)
	stop()

	adapter := foundationerrors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
	os.Exit(adapter.HandleError(err))
}
