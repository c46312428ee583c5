package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/aylabs/musicore-playback/internal/observability"
)

func TestNewRuntimeMetrics_NoopMeter(t *testing.T) {
	t.Parallel()

	mt := noopmetric.NewMeterProvider().Meter("test")
	rm, err := observability.NewRuntimeMetrics(mt)

	require.NoError(t, err)
	require.NotNil(t, rm)
}

func TestRuntimeMetrics_ObservesLiveValues(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	_, err := observability.NewRuntimeMetrics(mp.Meter("test"))
	require.NoError(t, err)

	rm := collectMetrics(t, reader)

	goroutines := findMetric(rm, "musicore.runtime.goroutines")
	require.NotNil(t, goroutines, "goroutines gauge not found")

	gauge, ok := goroutines.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "goroutines should be an int64 gauge")
	require.Len(t, gauge.DataPoints, 1)
	assert.Positive(t, gauge.DataPoints[0].Value, "a running test has live goroutines")

	gomaxprocs := findMetric(rm, "musicore.runtime.gomaxprocs")
	require.NotNil(t, gomaxprocs, "gomaxprocs gauge not found")

	gauge, ok = gomaxprocs.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Positive(t, gauge.DataPoints[0].Value)

	require.NotNil(t, findMetric(rm, "musicore.runtime.gc.cycles"), "gc cycles counter not found")
}
