package history

import (
	"encoding/json"
	"sort"
	"time"
)

// StatusRunning marks a run with no RunCompleted event.
const StatusRunning = "running"

// RunSummary is the read model of one run.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Kind        string        `json:"kind"`
	Work        string        `json:"work,omitempty"`
	Format      string        `json:"format,omitempty"`
	Language    string        `json:"language,omitempty"`
	Variant     string        `json:"variant,omitempty"`
	Revision    string        `json:"revision,omitempty"`
	Status      string        `json:"status"` // running or the run outcome
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Stages      int           `json:"stages"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	Warnings    int           `json:"warnings"`
	Artifacts   []string      `json:"artifacts,omitempty"`
}

// Summarize folds events into summaries, newest first, trimmed to limit
// when limit is positive. Events of unknown type are ignored.
func Summarize(events []Event, limit int) []RunSummary {
	byRun := map[string]*RunSummary{}
	for _, e := range events {
		if e.RunID == "" {
			continue
		}
		s, ok := byRun[e.RunID]
		if !ok {
			s = &RunSummary{RunID: e.RunID, Status: StatusRunning, StartedAt: e.Timestamp}
			byRun[e.RunID] = s
		}
		apply(s, e)
	}

	out := make([]RunSummary, 0, len(byRun))
	for _, s := range byRun {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RunID > out[j].RunID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func apply(s *RunSummary, e Event) {
	switch e.Type {
	case TypeRunStarted:
		var p RunStartedPayload
		if json.Unmarshal(e.Payload, &p) == nil {
			s.Kind, s.Work, s.Format = p.Kind, p.Work, p.Format
			s.Language, s.Variant, s.Revision = p.Language, p.Variant, p.Revision
		}
		s.StartedAt = e.Timestamp
	case TypeStageCompleted:
		s.Stages++
	case TypeRunCompleted:
		var p RunCompletedPayload
		if json.Unmarshal(e.Payload, &p) != nil {
			return
		}
		at := e.Timestamp
		s.CompletedAt = &at
		s.Status = p.Outcome
		s.FailedStage = p.FailedStage
		s.Error = p.Error
		s.Warnings = p.Warnings
		s.Artifacts = p.Artifacts
		s.Duration = time.Duration(p.DurationMS) * time.Millisecond
	}
}
