package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/devconfig"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildsTotal       metric.Int64Counter
	BuildErrorsTotal  metric.Int64Counter
	BuildWarnings     metric.Int64Counter
	BuildDuration     metric.Float64Histogram
	OutputFilesTotal  metric.Int64Counter
	DevServersStarted metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.BuildsTotal, _ = meter.Int64Counter(
		"devconfig.builds.total",
		metric.WithDescription("Total number of esbuild builds and rebuilds"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"devconfig.builds.errors.total",
		metric.WithDescription("Total number of errors reported by esbuild"),
		metric.WithUnit("{error}"),
	)

	m.BuildWarnings, _ = meter.Int64Counter(
		"devconfig.builds.warnings.total",
		metric.WithDescription("Total number of warnings reported by esbuild"),
		metric.WithUnit("{warning}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"devconfig.builds.duration",
		metric.WithDescription("Duration of esbuild builds"),
		metric.WithUnit("ms"),
	)

	m.OutputFilesTotal, _ = meter.Int64Counter(
		"devconfig.builds.output_files.total",
		metric.WithDescription("Total number of files written by one-shot builds"),
		metric.WithUnit("{file}"),
	)

	m.DevServersStarted, _ = meter.Int64Counter(
		"devconfig.devserver.started.total",
		metric.WithDescription("Total number of dev servers started"),
		metric.WithUnit("{server}"),
	)

	return m
}
