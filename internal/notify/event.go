// Package notify publishes run results to NATS JetStream.
package notify

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

// RunEvent is the message published when a run completes.
type RunEvent struct {
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	Work        string    `json:"work,omitempty"`
	Format      string    `json:"format,omitempty"`
	Language    string    `json:"language,omitempty"`
	Variant     string    `json:"variant,omitempty"`
	Revision    string    `json:"revision,omitempty"`
	Outcome     string    `json:"outcome"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Warnings    int       `json:"warnings"`
	Artifacts   []string  `json:"artifacts,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// FromReport builds the event for a finished run.
func FromReport(r *pipeline.Report) RunEvent {
	e := RunEvent{
		RunID:       r.RunID,
		Kind:        r.Kind,
		Work:        r.Work,
		Format:      string(r.Format),
		Language:    r.Language,
		Variant:     r.Variant,
		Revision:    r.Revision,
		Outcome:     string(r.Outcome),
		FailedStage: string(r.FailedStage),
		DurationMS:  r.Duration().Milliseconds(),
		Warnings:    len(r.Warnings),
		Timestamp:   r.End,
	}
	if len(r.Errors) > 0 {
		e.Error = r.Errors[0].Error()
	}
	for _, a := range r.Artifacts {
		e.Artifacts = append(e.Artifacts, a.Path)
	}
	return e
}

// Subject is the per-run subject: <base>.<kind>.<outcome>.
func (e RunEvent) Subject(base string) string {
	parts := []string{base, token(e.Kind), token(e.Outcome)}
	return strings.Join(parts, ".")
}

// Key names the last-run entry for the work and format, e.g. novel.fr.epub.
func (e RunEvent) Key() string {
	parts := []string{token(e.Work)}
	if e.Language != "" {
		parts = append(parts, token(e.Language))
	}
	if e.Variant != "" {
		parts = append(parts, token(e.Variant))
	}
	parts = append(parts, token(e.Format))
	return strings.Join(parts, ".")
}

// token keeps a subject or key token inside the characters NATS accepts.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
