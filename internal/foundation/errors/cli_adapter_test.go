package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad format").Build(), 2},
		{"metadata", MetadataError("no default.yml").Build(), 3},
		{"dependency", DependencyError("prince missing").Build(), 4},
		{"config", ConfigError("bad config").Build(), 7},
		{"stage", StageError("gulp exited 1").Build(), 11},
		{"wrapped stage", fmt.Errorf("run: %w", StageError("gulp exited 1").Build()), 11},
		{"canceled", NewError(CategoryCanceled, "interrupted").Build(), 130},
		{"unclassified", errors.New("plain"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{"nil error", nil, nil},
		{"internal hidden", InternalError("boom").Build(), []string{"use -v for details"}},
		{
			"dependency with hint",
			DependencyError("gulp not found").WithHint("Install Node.js and run npm install").Build(),
			[]string{"gulp not found", "npm install"},
		},
		{
			"stage with cause",
			WrapError(errors.New("exit status 2"), CategoryStage, "stage render-index-links failed").Build(),
			[]string{"render-index-links", "exit status 2"},
		},
		{"unclassified", errors.New("plain"), []string{"Error: plain"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.FormatError(tt.err)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("FormatError() = %q, want it to contain %q", got, want)
				}
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)
	adapter.out = &out

	err := StageError("stage failed").WithContext("stage", "render-pdf").Build()
	code := adapter.HandleError(err)

	if code != 11 {
		t.Errorf("expected exit code 11, got %d", code)
	}
	if !strings.Contains(out.String(), "stage failed") {
		t.Errorf("expected console message, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "stage=render-pdf") {
		t.Errorf("expected stage context in log, got %q", logs.String())
	}
}
