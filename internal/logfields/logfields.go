package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyWork       = "work"
	KeyFormat     = "format"
	KeyLanguage   = "language"
	KeyVariant    = "variant"
	KeyStage      = "stage"
	KeyStream     = "stream"
	KeyBinary     = "binary"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Work(w string) slog.Attr         { return slog.String(KeyWork, w) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Language(l string) slog.Attr     { return slog.String(KeyLanguage, l) }
func Variant(v string) slog.Attr      { return slog.String(KeyVariant, v) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Stream(s string) slog.Attr       { return slog.String(KeyStream, s) }
func Binary(b string) slog.Attr       { return slog.String(KeyBinary, b) }
func ExitCode(c int) slog.Attr        { return slog.Int(KeyExitCode, c) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
