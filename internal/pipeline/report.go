package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/batch"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
)

// RunOutcome is the typed enumeration of final run result states.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeWarning  RunOutcome = "warning"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// StageResult enumerates per-stage classification outcomes.
// Mirrors metrics.ResultLabel values to simplify emission.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// ReportIssueCode enumerates machine-parseable issue identifiers.
// These codes are a stable contract and should only be appended.
type ReportIssueCode string

const (
	IssueManifestNotFound  ReportIssueCode = "MANIFEST_NOT_FOUND"
	IssueMetadata          ReportIssueCode = "METADATA"
	IssueFormatNotFound    ReportIssueCode = "FORMAT_NOT_FOUND"
	IssueSpawnFailure      ReportIssueCode = "SPAWN_FAILURE"
	IssueStageExitFailure  ReportIssueCode = "STAGE_EXIT_FAILURE"
	IssueStageTimeout      ReportIssueCode = "STAGE_TIMEOUT"
	IssueSourceMissing     ReportIssueCode = "SOURCE_MISSING"
	IssuePartialCopy       ReportIssueCode = "PARTIAL_COPY"
	IssuePartialConversion ReportIssueCode = "PARTIAL_CONVERSION"
	IssueEpubFindings      ReportIssueCode = "EPUB_FINDINGS"
	IssueToolVersion       ReportIssueCode = "TOOL_VERSION"
	IssueCanceled          ReportIssueCode = "RUN_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured entry describing a discrete problem.
type ReportIssue struct {
	Code     ReportIssueCode `json:"code"`
	Stage    StageName       `json:"stage,omitempty"`
	Severity IssueSeverity   `json:"severity"`
	Message  string          `json:"message"`
}

// StageCount aggregates outcome counts for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Warning  int `json:"warning"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// Artifact is a file a run produced.
type Artifact struct {
	Kind string `json:"kind"` // pdf | epub | report | app | word
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Report captures what happened during one run.
type Report struct {
	SchemaVersion int
	RunID         string
	Kind          string // build | refresh-index | images | install
	Work          string
	Format        Format
	Language      string
	Variant       string
	Revision      string
	Start         time.Time
	End           time.Time

	Outcome     RunOutcome
	FailedStage StageName
	Errors      []error // the fatal error that ended the run, if any
	Warnings    []error

	Stages          []StageName // planned sequence
	StageDurations  map[string]time.Duration
	StageCounts     map[StageName]StageCount
	Issues          []ReportIssue
	Artifacts       []Artifact
	Items           map[StageName][]batch.ItemResult
	ManifestSources []string
	Files           int
	Math            bool
}

func newReport(runID string, req Request, start time.Time) *Report {
	return &Report{
		SchemaVersion:  1,
		RunID:          runID,
		Work:           req.Work,
		Format:         req.Format,
		Language:       req.Language,
		Variant:        req.Variant,
		Start:          start,
		StageDurations: make(map[string]time.Duration),
		StageCounts:    make(map[StageName]StageCount),
		Items:          make(map[StageName][]batch.ItemResult),
	}
}

// AddIssue appends a structured issue and mirrors err into Errors or
// Warnings based on severity. Pass err=nil for purely informational issues.
func (r *Report) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, msg string, err error) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg})
	if err == nil {
		return
	}
	switch severity {
	case SeverityError:
		r.Errors = append(r.Errors, err)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, err)
	}
}

// AddArtifact records a produced file, sizing it when it exists.
func (r *Report) AddArtifact(kind, path string) {
	a := Artifact{Kind: kind, Path: path}
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		a.Size = st.Size()
	}
	r.Artifacts = append(r.Artifacts, a)
}

// HasArtifact reports whether path was recorded as an artifact.
func (r *Report) HasArtifact(path string) bool {
	for _, a := range r.Artifacts {
		if a.Path == path {
			return true
		}
	}
	return false
}

// HasIssue reports whether an issue with code was recorded.
func (r *Report) HasIssue(code ReportIssueCode) bool {
	for _, i := range r.Issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

func (r *Report) recordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	sc := r.StageCounts[stage]
	switch res {
	case StageResultSuccess:
		sc.Success++
	case StageResultWarning:
		sc.Warning++
	case StageResultFatal:
		sc.Fatal++
	case StageResultCanceled:
		sc.Canceled++
	}
	r.StageCounts[stage] = sc
	if recorder != nil {
		recorder.IncStageResult(string(stage), metrics.ResultLabel(res))
	}
}

func (r *Report) finish(end time.Time) {
	r.End = end
	r.deriveOutcome()
}

// deriveOutcome sets Outcome from the recorded errors and warnings.
func (r *Report) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if (errors.As(e, &se) && se.Kind == StageErrorCanceled) || errors.Is(e, context.Canceled) {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Succeeded reports whether the run completed every planned stage.
func (r *Report) Succeeded() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeWarning
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	s := fmt.Sprintf("run=%s work=%s format=%s duration=%s files=%d stages=%d errors=%d warnings=%d outcome=%s",
		r.RunID, r.Work, r.Format, r.Duration().Truncate(time.Millisecond), r.Files,
		len(r.StageDurations), len(r.Errors), len(r.Warnings), r.Outcome)
	if r.FailedStage != "" {
		s += " failed_stage=" + string(r.FailedStage)
	}
	return s
}

// Persist writes build-report.json and build-report.txt atomically into dir.
// Errors are returned for caller logging and do not change the outcome.
func (r *Report) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	jb, err := json.MarshalIndent(r.Serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, "build-report.json"), jb); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, "build-report.txt"), []byte(r.Summary()+"\n"))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ItemRecord is the JSON form of a batch.ItemResult.
type ItemRecord struct {
	Item   string `json:"item"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ReportSerializable mirrors Report with string errors for JSON output.
type ReportSerializable struct {
	SchemaVersion   int                      `json:"schema_version"`
	RunID           string                   `json:"run_id"`
	Kind            string                   `json:"kind"`
	Work            string                   `json:"work"`
	Format          string                   `json:"format"`
	Language        string                   `json:"language,omitempty"`
	Variant         string                   `json:"variant,omitempty"`
	Revision        string                   `json:"revision,omitempty"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
	Outcome         string                   `json:"outcome"`
	FailedStage     string                   `json:"failed_stage,omitempty"`
	Errors          []string                 `json:"errors"`
	Warnings        []string                 `json:"warnings"`
	Stages          []StageName              `json:"stages"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageCounts     map[string]StageCount    `json:"stage_counts"`
	Issues          []ReportIssue            `json:"issues"`
	Artifacts       []Artifact               `json:"artifacts"`
	Items           map[string][]ItemRecord  `json:"items,omitempty"`
	ManifestSources []string                 `json:"manifest_sources"`
	Files           int                      `json:"files"`
	Math            bool                     `json:"math"`
}

// Serializable returns a JSON-friendly copy of the report.
func (r *Report) Serializable() *ReportSerializable {
	s := &ReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		RunID:           r.RunID,
		Kind:            r.Kind,
		Work:            r.Work,
		Format:          string(r.Format),
		Language:        r.Language,
		Variant:         r.Variant,
		Revision:        r.Revision,
		Start:           r.Start,
		End:             r.End,
		Outcome:         string(r.Outcome),
		FailedStage:     string(r.FailedStage),
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		Stages:          r.Stages,
		StageDurations:  r.StageDurations,
		StageCounts:     make(map[string]StageCount, len(r.StageCounts)),
		Issues:          r.Issues,
		Artifacts:       r.Artifacts,
		ManifestSources: r.ManifestSources,
		Files:           r.Files,
		Math:            r.Math,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	for k, v := range r.StageCounts {
		s.StageCounts[string(k)] = v
	}
	if len(r.Items) > 0 {
		s.Items = make(map[string][]ItemRecord, len(r.Items))
		for st, results := range r.Items {
			recs := make([]ItemRecord, len(results))
			for i, res := range results {
				recs[i] = ItemRecord{Item: res.Item, Output: res.Output}
				if res.Err != nil {
					recs[i].Error = res.Err.Error()
				}
			}
			s.Items[string(st)] = recs
		}
	}
	if s.Stages == nil {
		s.Stages = []StageName{}
	}
	if s.Issues == nil {
		s.Issues = []ReportIssue{}
	}
	if s.Artifacts == nil {
		s.Artifacts = []Artifact{}
	}
	if s.ManifestSources == nil {
		s.ManifestSources = []string{}
	}
	return s
}
