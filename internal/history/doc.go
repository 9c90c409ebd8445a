// Package history keeps a local record of pipeline runs in SQLite.
//
// Runs are stored as an append-only list of events (run started, stage
// completed, run completed). Summaries are folded from those events on read.
package history
