package pipeline

import (
	"errors"

	"git.home.luguber.info/inful/bookbuilder/internal/epub"
	"git.home.luguber.info/inful/bookbuilder/internal/stage"
)

// StageOutcome is the normalized result of one stage execution.
type StageOutcome struct {
	Stage     StageName
	Error     *StageError
	Result    StageResult
	IssueCode ReportIssueCode
	Severity  IssueSeverity
	Abort     bool
}

func resultFromStageErrorKind(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

func severityFromStageErrorKind(k StageErrorKind) IssueSeverity {
	if k == StageErrorWarning {
		return SeverityWarning
	}
	return SeverityError
}

// classifyStageResult converts a raw stage error into a StageOutcome.
// Errors that are not StageErrors are fatal.
func classifyStageResult(name StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: name, Result: StageResultSuccess}
	}
	var se *StageError
	if !errors.As(err, &se) {
		se = newFatalStageError(name, err)
	}
	if se.Kind == StageErrorCanceled {
		return StageOutcome{
			Stage: name, Error: se, Result: StageResultCanceled,
			IssueCode: IssueCanceled, Severity: SeverityError, Abort: true,
		}
	}
	return StageOutcome{
		Stage:     name,
		Error:     se,
		Result:    resultFromStageErrorKind(se.Kind),
		IssueCode: classifyIssueCode(se),
		Severity:  severityFromStageErrorKind(se.Kind),
		Abort:     se.Kind == StageErrorFatal,
	}
}

func classifyIssueCode(se *StageError) ReportIssueCode {
	cause := se.Err
	switch {
	case errors.Is(cause, stage.ErrSpawnFailure):
		return IssueSpawnFailure
	case errors.Is(cause, stage.ErrTimeout):
		return IssueStageTimeout
	case errors.Is(cause, stage.ErrExitFailure):
		return IssueStageExitFailure
	case errors.Is(cause, epub.ErrSourceMissing):
		return IssueSourceMissing
	case errors.Is(cause, ErrPartialCopy):
		return IssuePartialCopy
	case errors.Is(cause, ErrPartialConversion):
		return IssuePartialConversion
	case errors.Is(cause, ErrEpubFindings):
		return IssueEpubFindings
	case errors.Is(cause, ErrNoFiles):
		return IssueFormatNotFound
	default:
		return IssueGenericStageError
	}
}
