package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

const (
	testMetricName = "test.metric"
	testMetricDesc = "A test metric"
	testMetricUnit = "{item}"
)

func testMeter() metric.Meter {
	return noopmetric.NewMeterProvider().Meter("test")
}

func TestMetricBuilder_Counter(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(testMeter())

	c := b.counter(testMetricName, testMetricDesc, testMetricUnit)
	require.NoError(t, b.err)
	assert.NotNil(t, c)
}

func TestMetricBuilder_Histogram(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(testMeter())

	h := b.histogram(testMetricName, testMetricDesc, "ms", frameBucketBoundaries...)
	require.NoError(t, b.err)
	assert.NotNil(t, h)
}

func TestMetricBuilder_IntHistogram(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(testMeter())

	h := b.intHistogram(testMetricName, testMetricDesc, testMetricUnit, noteCountBucketBoundaries...)
	require.NoError(t, b.err)
	assert.NotNil(t, h)
}

func TestMetricBuilder_UpDownCounter(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(testMeter())

	c := b.upDownCounter(testMetricName, testMetricDesc, testMetricUnit)
	require.NoError(t, b.err)
	assert.NotNil(t, c)
}

func TestMetricBuilder_Observables(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(testMeter())

	g := b.gauge(testMetricName, testMetricDesc, testMetricUnit)
	c := b.observableCounter("test.metric.counter", testMetricDesc, testMetricUnit)
	require.NoError(t, b.err)
	assert.NotNil(t, g)
	assert.NotNil(t, c)
}

func TestMetricBuilder_KeepsFirstError(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(testMeter())

	first := errors.New("first failure")
	second := errors.New("second failure")

	b.setErr("metric.a", first)
	b.setErr("metric.b", second)

	require.Error(t, b.err)
	assert.ErrorIs(t, b.err, first)
	assert.NotErrorIs(t, b.err, second)
	assert.Contains(t, b.err.Error(), "metric.a")
}
