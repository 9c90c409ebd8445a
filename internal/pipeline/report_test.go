package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/batch"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
)

func TestReport_DeriveOutcome(t *testing.T) {
	r := newReport("r1", Request{Work: "novel", Format: FormatEpub}, time.Now())
	r.deriveOutcome()
	assert.Equal(t, OutcomeSuccess, r.Outcome)

	r.AddIssue(IssuePartialCopy, StageCopyEpubFiles, SeverityWarning, "soft", errors.New("soft"))
	r.deriveOutcome()
	assert.Equal(t, OutcomeWarning, r.Outcome)
	assert.True(t, r.Succeeded())

	r.AddIssue(IssueCanceled, StageAssembleEpub, SeverityError, "stop", newCanceledStageError(StageAssembleEpub, context.Canceled))
	r.deriveOutcome()
	assert.Equal(t, OutcomeCanceled, r.Outcome)

	f := newReport("r2", Request{}, time.Now())
	f.AddIssue(IssueStageExitFailure, StageRenderPDF, SeverityError, "hard", newFatalStageError(StageRenderPDF, errors.New("exit 1")))
	f.deriveOutcome()
	assert.Equal(t, OutcomeFailed, f.Outcome)
	assert.False(t, f.Succeeded())
}

func TestRunStages_ClassifiesAndStops(t *testing.T) {
	h := newHarness(t, t.TempDir())
	rs := &RunState{Report: newReport("r", Request{}, time.Now()), Log: h.orch.logger}
	warn := func(context.Context, *RunState) error {
		return newWarnStageError("warn_stage", errors.New("soft"))
	}
	fatal := func(context.Context, *RunState) error { return errors.New("boom") }
	never := func(context.Context, *RunState) error {
		t.Fatal("stage after a fatal stage must not run")
		return nil
	}

	err := h.orch.runStages(context.Background(), rs, []StageDef{
		{"warn_stage", warn}, {"fatal_stage", fatal}, {"never", never},
	})
	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Len(t, rs.Report.Warnings, 1)
	assert.Len(t, rs.Report.Errors, 1)
	assert.Equal(t, StageName("fatal_stage"), rs.Report.FailedStage)
	assert.Equal(t, 1, rs.Report.StageCounts["warn_stage"].Warning)
	assert.Equal(t, 1, rs.Report.StageCounts["fatal_stage"].Fatal)
	assert.Contains(t, rs.Report.StageDurations, "warn_stage")
	assert.NotContains(t, rs.Report.StageDurations, "never")
}

func TestRunStages_CanceledBeforeStart(t *testing.T) {
	h := newHarness(t, t.TempDir())
	rs := &RunState{Report: newReport("r", Request{}, time.Now()), Log: h.orch.logger}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.orch.runStages(ctx, rs, []StageDef{{StageClearSite, h.orch.stageClearSite}})
	require.Error(t, err)
	assert.Equal(t, 1, rs.Report.StageCounts[StageClearSite].Canceled)
	assert.True(t, rs.Report.HasIssue(IssueCanceled))
}

func TestReport_Persist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := newReport("run-1", Request{Work: "novel", Format: FormatWord}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	r.Kind = "build"
	r.Items[StageConvertWord] = []batch.ItemResult{
		{Item: "a.html", Output: "a.docx"},
		{Item: "b.html", Err: errors.New("pandoc failed")},
	}
	r.AddIssue(IssuePartialConversion, StageConvertWord, SeverityWarning, "1 of 2 items failed", errors.New("partial"))
	r.finish(r.Start.Add(1500 * time.Millisecond))

	require.NoError(t, r.Persist(dir))

	data, err := os.ReadFile(filepath.Join(dir, "build-report.json"))
	require.NoError(t, err)
	var got ReportSerializable
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "warning", got.Outcome)
	assert.Equal(t, []string{"partial"}, got.Warnings)
	require.Len(t, got.Items["convert-word"], 2)
	assert.Equal(t, "pandoc failed", got.Items["convert-word"][1].Error)
	assert.NotNil(t, got.Artifacts)

	txt, err := os.ReadFile(filepath.Join(dir, "build-report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(txt), "outcome=warning")
	assert.Contains(t, string(txt), "duration=1.5s")
}

type countingRecorder struct {
	metrics.NoopRecorder
	outcomes map[string]string
	sizes    map[string]int64
}

func (c *countingRecorder) IncRunOutcome(format string, o metrics.RunOutcomeLabel) {
	c.outcomes[format] = string(o)
}

func (c *countingRecorder) ObserveArtifactSize(format string, n int64) { c.sizes[format] = n }

func TestRecorderObserver(t *testing.T) {
	rec := &countingRecorder{outcomes: map[string]string{}, sizes: map[string]int64{}}
	r := newReport("r", Request{Format: FormatEpub}, time.Now())
	path := filepath.Join(t.TempDir(), "novel.epub")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o644))
	r.AddArtifact("epub", path)
	r.finish(time.Now())

	recorderObserver{rec: rec}.OnRunComplete(r)
	assert.Equal(t, "success", rec.outcomes["epub"])
	assert.Equal(t, int64(5), rec.sizes["epub"])
}
