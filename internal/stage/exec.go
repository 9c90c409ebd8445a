package stage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/deps"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

const (
	maxLineBytes = 1 << 20
	waitDelay    = 5 * time.Second
)

// ExecRunner runs commands as operating system processes.
type ExecRunner struct {
	Sink   LineSink
	Logger *slog.Logger
}

// NewExecRunner returns a runner that logs output through logger.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{Sink: LogSink(logger), Logger: logger}
}

// Run starts c and blocks until it exits and its output has been delivered.
func (r *ExecRunner) Run(ctx context.Context, c Command) (ExitStatus, error) {
	failed := ExitStatus{Code: -1}
	if err := ctx.Err(); err != nil {
		return failed, err
	}
	log := r.logger().With(logfields.Stage(c.Name), logfields.Binary(c.Binary))

	path, err := exec.LookPath(c.Binary)
	if err != nil {
		return failed, &SpawnError{Binary: c.Binary, Guidance: deps.Guidance(c.Binary), Err: err}
	}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, path, c.Args...) //nolint:gosec
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.WaitDelay = waitDelay

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW

	sink := c.Sink
	if sink == nil {
		sink = r.Sink
	}
	if sink == nil {
		sink = LogSink(r.logger())
	}
	var mu sync.Mutex
	deliver := func(stream Stream, line string) {
		mu.Lock()
		defer mu.Unlock()
		sink(c.Name, stream, line)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once
	scan := func(rd io.Reader, stream Stream) {
		defer wg.Done()
		scanner := bufio.NewScanner(rd)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			deliver(stream, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { scanErr = err })
			// keep the writer unblocked
			_, _ = io.Copy(io.Discard, rd)
		}
	}

	log.Debug("Starting process", slog.String("command", c.String()), logfields.Path(c.Dir))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = outW.Close()
		_ = errW.Close()
		return failed, &SpawnError{Binary: c.Binary, Guidance: deps.Guidance(c.Binary), Err: err}
	}

	wg.Add(2)
	go scan(outR, Stdout)
	go scan(errR, Stderr)

	waitErr := cmd.Wait()
	_ = outW.Close()
	_ = errW.Close()
	wg.Wait()

	status := ExitStatus{Code: cmd.ProcessState.ExitCode(), Duration: time.Since(start)}
	log.Debug("Process exited", logfields.ExitCode(status.Code), logfields.DurationMS(float64(status.Duration.Milliseconds())))

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if ctx.Err() == nil && errors.Is(ctxErr, context.DeadlineExceeded) {
			return status, fmt.Errorf("%w after %s: %s", ErrTimeout, c.Timeout, c.Binary)
		}
		return status, ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return status, fmt.Errorf("wait %s: %w", c.Binary, waitErr)
		}
	}
	if scanErr != nil {
		return status, fmt.Errorf("read %s output: %w", c.Binary, scanErr)
	}
	return status, nil
}

func (r *ExecRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
