package pipeline

import (
	"context"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/bookbuilder/internal/epub"
	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/stage"
	"git.home.luguber.info/inful/bookbuilder/internal/workspace"
)

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

var (
	// ErrPartialCopy reports container items that could not be copied.
	ErrPartialCopy = errors.New("partial copy failure")
	// ErrPartialConversion reports pages that could not be converted.
	ErrPartialConversion = errors.New("partial conversion failure")
	// ErrNoFiles reports a product without files where a stage needs some.
	ErrNoFiles = errors.New("no files listed for format")
	// ErrEpubFindings reports validator errors or warnings. It is advisory.
	ErrEpubFindings = errors.New("epub validation findings")
)

// classifyRunError turns the error that ended a run into a classified error
// for the CLI.
func classifyRunError(err error) error {
	if err == nil || foundationerrors.IsClassified(err) {
		return err
	}
	var se *StageError
	stageName := ""
	if errors.As(err, &se) {
		stageName = string(se.Stage)
	}
	var b *foundationerrors.ErrorBuilder
	var spawn *stage.SpawnError
	switch {
	case errors.Is(err, context.Canceled):
		b = foundationerrors.WrapError(err, foundationerrors.CategoryCanceled, "run canceled")
	case errors.As(err, &spawn):
		b = foundationerrors.WrapError(err, foundationerrors.CategoryDependency, "cannot start "+spawn.Binary).
			Fatal().UserAction().WithHint(spawn.Guidance)
	case errors.Is(err, stage.ErrTimeout):
		b = foundationerrors.WrapError(err, foundationerrors.CategoryStage, "stage timed out").Fatal().Rerun()
	case errors.Is(err, epub.ErrSourceMissing):
		b = foundationerrors.WrapError(err, foundationerrors.CategoryEpub, "epub container is missing").Fatal().
			WithHint("check that the site generator wrote the epub folder")
	case errors.Is(err, workspace.ErrBusy):
		b = foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "project is busy").Fatal().Rerun()
	case errors.Is(err, ErrNoFiles):
		b = foundationerrors.WrapError(err, foundationerrors.CategoryMetadata, "nothing to render").Fatal().UserAction().
			WithHint("add a files list for this format to the work's metadata")
	default:
		b = foundationerrors.WrapError(err, foundationerrors.CategoryStage, "stage failed").Fatal().Rerun()
	}
	if stageName != "" {
		b = b.WithContext("stage", stageName)
	}
	return b.Build()
}
