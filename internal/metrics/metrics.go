// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from manifest compilation and artifact
// export.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - Concrete metric systems live in subpackages (prompush, datadog); the
//     rest of the codebase depends only on this interface.
//
// The primary use case is instrumentation of compilation runs (per-table
// durations, failure counts, files written by the exporter) without coupling
// the compiler to a specific metrics system.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordTable records one table's compilation: a success/failure counter and
// the compile duration.
func RecordTable(table string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"table":  table,
		"status": status,
	}

	backend.IncCounter("hooksql_tables_total", 1, lbls)
	backend.ObserveHistogram("hooksql_table_compile_seconds", d.Seconds(), lbls)
}

// RecordArtifacts increments the per-kind artifact counter. Typical kinds are
// the exporter directory names: "hook", "uss_bridge", "uss_peripheral".
func RecordArtifacts(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("hooksql_artifacts_total", float64(delta), Labels{
		"kind": kind,
	})
}

// RecordExport increments the exported-files counter for the given kind and
// action ("written" or "skipped").
func RecordExport(kind, action string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("hooksql_export_files_total", float64(delta), Labels{
		"kind":   kind,
		"action": action,
	})
}
