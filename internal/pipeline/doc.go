// Package pipeline sequences the external tools that turn a work's sources
// into one output format.
//
// A run resolves the work's metadata, clears the site folder and then runs a
// fixed, per-format list of stages strictly one after another. The first
// fatal stage aborts the run and leaves the site folder in place for
// inspection. Warnings (partial copies, partial conversions, validator
// findings) are recorded in the Report and the run carries on.
package pipeline
