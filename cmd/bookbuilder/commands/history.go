package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	foundationerrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" default:"20" help:"Number of runs to show"`
	RunID string `name:"run" help:"Show the events of one run"`
	JSON  bool   `name:"json" help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(ctx context.Context, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return foundationerrors.ConfigError("run history is disabled").
			WithHint("set history.enabled: true in the configuration").
			Build()
	}
	store, err := history.NewSQLiteStore(cfg.Abs(cfg.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if h.RunID != "" {
		events, err := store.ByRun(ctx, h.RunID)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return foundationerrors.NewError(foundationerrors.CategoryNotFound, "no events recorded for run "+h.RunID).Build()
		}
		if h.JSON {
			return printJSON(eventsJSON(events))
		}
		fmt.Println(renderEvents(events))
		return nil
	}

	runs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if h.JSON {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}
	fmt.Println(renderRuns(runs, time.Now()))
	return nil
}

func renderRuns(runs []history.RunSummary, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		target := r.Work
		if r.Language != "" {
			target += "/" + r.Language
		}
		if r.Variant != "" {
			target += "/" + r.Variant
		}
		duration := "-"
		if r.CompletedAt != nil {
			duration = r.Duration.Truncate(time.Millisecond).String()
		}
		status := r.Status
		if r.FailedStage != "" {
			status += " (" + r.FailedStage + ")"
		}
		rows = append(rows, []string{
			shortID(r.RunID),
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.Kind,
			target,
			r.Format,
			status,
			duration,
			humanize.Comma(int64(r.Warnings)),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Kind", "Work", "Format", "Status", "Duration", "Warnings"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func renderEvents(events []history.Event) string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{e.Timestamp.Format(time.RFC3339), e.Type, string(e.Payload)})
	}
	return renderTable([]string{"Time", "Event", "Payload"}, rows, nil)
}

type eventJSON struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func eventsJSON(events []history.Event) []eventJSON {
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSON{Type: e.Type, Timestamp: e.Timestamp, Payload: json.RawMessage(e.Payload)})
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
