// Package metrics records pipeline run and stage metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites. The CLI swaps in a
// PrometheusRecorder when a textfile path is configured and writes the
// registry once the run finishes, which suits short-lived processes that a
// node_exporter textfile collector picks up.
package metrics
