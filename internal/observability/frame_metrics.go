package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aylabs/musicore-playback/pkg/highlight"
)

const (
	metricFramesTotal         = "musicore.playback.frames.total"
	metricFrameDuration       = "musicore.playback.frame.duration.ms"
	metricDegradedTransitions = "musicore.playback.degraded.transitions.total"
	metricActiveNotes         = "musicore.playback.active.notes"
	metricPatchSize           = "musicore.playback.patch.size"

	attrResult = "result"

	resultProcessed = "processed"
	resultSkipped   = "skipped"
)

// frameBucketBoundaries covers 0.25ms to 32ms: the default frame budget is
// 8ms and a 60fps frame interval is 16.7ms, so overruns land in the upper buckets.
var frameBucketBoundaries = []float64{0.25, 0.5, 1, 2, 4, 8, 12, 16, 24, 32}

// noteCountBucketBoundaries covers chord-sized to orchestral-sized note sets.
var noteCountBucketBoundaries = []float64{0, 1, 2, 4, 8, 16, 32, 64, 128}

const microsPerMilli = 1000.0

// FrameMetrics holds OTel instruments for per-frame playback metrics.
// Like the session it observes, a FrameMetrics belongs to one run at a
// time and is not safe for concurrent use.
type FrameMetrics struct {
	framesTotal         metric.Int64Counter
	frameDuration       metric.Float64Histogram
	degradedTransitions metric.Int64Counter
	activeNotes         metric.Int64Histogram
	patchSize           metric.Int64Histogram

	degraded bool
}

// NewFrameMetrics creates playback frame instruments from the given meter.
func NewFrameMetrics(mt metric.Meter) (*FrameMetrics, error) {
	b := newMetricBuilder(mt)

	fm := &FrameMetrics{
		framesTotal:         b.counter(metricFramesTotal, "Total frames by result", "{frame}"),
		frameDuration:       b.histogram(metricFrameDuration, "Processed frame duration in milliseconds", "ms", frameBucketBoundaries...),
		degradedTransitions: b.counter(metricDegradedTransitions, "Transitions from normal to degraded mode", "{transition}"),
		activeNotes:         b.intHistogram(metricActiveNotes, "Active notes per processed frame", "{note}", noteCountBucketBoundaries...),
		patchSize:           b.intHistogram(metricPatchSize, "Notes added plus removed per applied patch", "{note}", noteCountBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return fm, nil
}

// ObserveFrame records the outcome of one Advance call.
// Safe to call on a nil receiver (no-op).
func (fm *FrameMetrics) ObserveFrame(res highlight.FrameResult) {
	if fm == nil {
		return
	}

	ctx := context.Background()

	if res.Skipped {
		fm.framesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, resultSkipped)))
		fm.observeDegraded(ctx, res.Degraded)

		return
	}

	fm.framesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, resultProcessed)))
	fm.frameDuration.Record(ctx, float64(res.Duration.Microseconds())/microsPerMilli)
	fm.activeNotes.Record(ctx, int64(res.Active))

	if !res.Patch.Unchanged {
		fm.patchSize.Record(ctx, int64(len(res.Patch.Added)+len(res.Patch.Removed)))
	}

	fm.observeDegraded(ctx, res.Degraded)
}

// observeDegraded counts rising edges of the degraded flag.
func (fm *FrameMetrics) observeDegraded(ctx context.Context, degraded bool) {
	if degraded && !fm.degraded {
		fm.degradedTransitions.Add(ctx, 1)
	}

	fm.degraded = degraded
}
