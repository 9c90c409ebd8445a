// Package stage runs the external processes that make up pipeline stages.
//
// A Runner starts one process, streams its stdout and stderr line by line to a
// LineSink while it runs, and returns once the process has exited and both
// streams are drained. A nonzero exit code is reported in ExitStatus, not as
// an error; a binary that cannot be started is a *SpawnError.
package stage
