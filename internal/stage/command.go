package stage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// Stream identifies which output stream a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// LineSink receives process output one line at a time.
type LineSink func(stage string, stream Stream, line string)

// Command describes one external process invocation.
type Command struct {
	// Name is the stage name used when logging output.
	Name    string
	Binary  string
	Args    []string
	Dir     string
	Env     []string // appended to the current environment
	Timeout time.Duration
	// Sink overrides the runner's sink for this command.
	Sink LineSink
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// ExitStatus is the outcome of a process that ran to completion.
type ExitStatus struct {
	Code     int
	Duration time.Duration
}

// Success reports a zero exit code.
func (s ExitStatus) Success() bool { return s.Code == 0 }

// Runner starts a command and waits for it.
type Runner interface {
	Run(ctx context.Context, cmd Command) (ExitStatus, error)
}

// LogSink logs each line at info level with stage and stream attributes.
func LogSink(logger *slog.Logger) LineSink {
	if logger == nil {
		logger = slog.Default()
	}
	return func(stage string, stream Stream, line string) {
		logger.Info(line, logfields.Stage(stage), logfields.Stream(string(stream)))
	}
}

// FilterSink drops lines containing any of the given substrings before
// passing the rest to next.
func FilterSink(next LineSink, drop ...string) LineSink {
	return func(stage string, stream Stream, line string) {
		for _, d := range drop {
			if strings.Contains(line, d) {
				return
			}
		}
		next(stage, stream, line)
	}
}

// Run executes cmd on r and converts a nonzero exit into ErrExitFailure.
func Run(ctx context.Context, r Runner, cmd Command) (ExitStatus, error) {
	status, err := r.Run(ctx, cmd)
	if err != nil {
		return status, err
	}
	return status, Check(cmd, status)
}
