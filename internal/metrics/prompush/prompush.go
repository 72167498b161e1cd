// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the compilation labels (table, status, kind, action) onto
//     Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint, which suits a short-lived compiler
//     process.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog, StatsD) without changes to the
// compiler.
package prompush

import (
	"fmt"

	"hooksql/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Table-level metrics
	tableCounter  *prometheus.CounterVec // "hooksql_tables_total"
	tableDuration *prometheus.SummaryVec // "hooksql_table_compile_seconds"

	// Artifact/export metrics
	artifactCounter *prometheus.CounterVec // "hooksql_artifacts_total"
	exportCounter   *prometheus.CounterVec // "hooksql_export_files_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often the manifest name).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "hooksql"
	}

	reg := prometheus.NewRegistry()

	tableCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hooksql_tables_total",
			Help: "Total number of table compilations, partitioned by table and status.",
		},
		[]string{"table", "status"},
	)
	tableDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "hooksql_table_compile_seconds",
			Help:       "Duration of table compilations in seconds, partitioned by table and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"table", "status"},
	)
	artifactCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hooksql_artifacts_total",
			Help: "Compiled artifact counts per kind (hook, uss_bridge, uss_peripheral).",
		},
		[]string{"kind"},
	)
	exportCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hooksql_export_files_total",
			Help: "Exported artifact files per kind and action (written, skipped).",
		},
		[]string{"kind", "action"},
	)

	if err := reg.Register(tableCounter); err != nil {
		return nil, fmt.Errorf("prompush: register table counter: %w", err)
	}
	if err := reg.Register(tableDuration); err != nil {
		return nil, fmt.Errorf("prompush: register table summary: %w", err)
	}
	if err := reg.Register(artifactCounter); err != nil {
		return nil, fmt.Errorf("prompush: register artifact counter: %w", err)
	}
	if err := reg.Register(exportCounter); err != nil {
		return nil, fmt.Errorf("prompush: register export counter: %w", err)
	}

	return &Backend{
		gatewayURL:      gatewayURL,
		jobName:         jobName,
		reg:             reg,
		tableCounter:    tableCounter,
		tableDuration:   tableDuration,
		artifactCounter: artifactCounter,
		exportCounter:   exportCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "hooksql_tables_total":
		if b.tableCounter == nil {
			return
		}
		b.tableCounter.WithLabelValues(labels["table"], labels["status"]).Add(delta)

	case "hooksql_artifacts_total":
		if b.artifactCounter == nil {
			return
		}
		b.artifactCounter.WithLabelValues(labels["kind"]).Add(delta)

	case "hooksql_export_files_total":
		if b.exportCounter == nil {
			return
		}
		b.exportCounter.WithLabelValues(labels["kind"], labels["action"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "hooksql_table_compile_seconds" || b.tableDuration == nil {
		return
	}
	b.tableDuration.WithLabelValues(labels["table"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
