package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/aylabs/musicore-playback/internal/observability"
)

func newTestProvider() (*tracetest.InMemoryExporter, trace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	return exporter, tp
}

func TestFilteringProvider_SuppressedTracer(t *testing.T) {
	t.Parallel()

	exporter, base := newTestProvider()
	fp := observability.NewFilteringTracerProvider(base)

	// musicore.frames is suppressed — per-frame spans should not be recorded.
	tracer := fp.Tracer("musicore.frames")
	_, span := tracer.Start(context.Background(), "musicore.frame.advance")
	span.End()

	assert.Empty(t, exporter.GetSpans(), "suppressed tracer should produce no exported spans")
}

func TestFilteringProvider_SuppressedSpan(t *testing.T) {
	t.Parallel()

	exporter, base := newTestProvider()
	fp := observability.NewFilteringTracerProvider(base)

	tracer := fp.Tracer("musicore.mcp")

	// Run-level span should pass through.
	_, runSpan := tracer.Start(context.Background(), "musicore.mcp.score_info")
	runSpan.End()

	// Per-tick poll span should be suppressed.
	_, pollSpan := tracer.Start(context.Background(), "musicore.mcp.active_notes")
	pollSpan.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "only the run-level span should be exported")
	assert.Equal(t, "musicore.mcp.score_info", spans[0].Name)
}

func TestFilteringProvider_PassThrough(t *testing.T) {
	t.Parallel()

	exporter, base := newTestProvider()
	fp := observability.NewFilteringTracerProvider(base)

	// Root "musicore" tracer is not suppressed — spans pass through.
	tracer := fp.Tracer("musicore")
	_, span := tracer.Start(context.Background(), "musicore.playback.run")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "musicore.playback.run", spans[0].Name)
}
