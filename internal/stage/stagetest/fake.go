// Package stagetest provides a scripted stage.Runner for tests.
package stagetest

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/bookbuilder/internal/stage"
)

// Result is what the fake returns for one command.
type Result struct {
	Code   int
	Err    error
	Stdout []string
	Stderr []string
}

// Runner records every command and answers from Results keyed by command
// name, falling back to OnRun and then to a zero exit.
type Runner struct {
	mu       sync.Mutex
	Results  map[string]Result
	OnRun    func(cmd stage.Command) Result
	commands []stage.Command
}

// New returns an empty fake runner.
func New() *Runner { return &Runner{Results: map[string]Result{}} }

func (r *Runner) Run(ctx context.Context, cmd stage.Command) (stage.ExitStatus, error) {
	if err := ctx.Err(); err != nil {
		return stage.ExitStatus{Code: -1}, err
	}
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	res, ok := r.Results[cmd.Name]
	onRun := r.OnRun
	r.mu.Unlock()

	if !ok && onRun != nil {
		res = onRun(cmd)
	}
	if cmd.Sink != nil {
		for _, l := range res.Stdout {
			cmd.Sink(cmd.Name, stage.Stdout, l)
		}
		for _, l := range res.Stderr {
			cmd.Sink(cmd.Name, stage.Stderr, l)
		}
	}
	if res.Err != nil {
		return stage.ExitStatus{Code: -1}, res.Err
	}
	return stage.ExitStatus{Code: res.Code}, nil
}

// Commands returns a copy of the recorded commands in call order.
func (r *Runner) Commands() []stage.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stage.Command(nil), r.commands...)
}

// Names returns the recorded command names in call order.
func (r *Runner) Names() []string {
	cmds := r.Commands()
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}
