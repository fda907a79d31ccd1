package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMetrics_singleton(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.Same(t, m, GetMetrics())

	require.NotNil(t, m.BuildsTotal)
	require.NotNil(t, m.BuildDuration)

	// the global noop provider accepts recordings
	m.BuildsTotal.Add(context.Background(), 1)
	m.BuildDuration.Record(context.Background(), 12.5)
}

func TestTracer(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "test")
	defer span.End()
	require.NotNil(t, span)
}
