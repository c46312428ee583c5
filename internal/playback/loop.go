package playback

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aylabs/musicore-playback/pkg/highlight"
)

// DefaultFPS is the frame rate the loop drives sessions at.
const DefaultFPS = 60

const (
	// tracerName is the OTel tracer for run-level spans.
	tracerName = "musicore.playback"

	// frameTracerName is the OTel tracer for per-frame spans. At frame
	// rate these are hot-path spans; the default trace filter suppresses
	// this tracer entirely.
	frameTracerName = "musicore.frames"
)

// Config shapes one playback run.
type Config struct {
	// FPS is the frame rate. Non-positive falls back to DefaultFPS.
	FPS int

	// Realtime makes the loop wait out each frame interval on the wall
	// clock. When false the loop advances virtually: elapsed time grows by
	// exactly one interval per frame without sleeping, so runs are fast
	// and deterministic.
	Realtime bool

	// FrameLoad is an artificial per-frame cost injected into the
	// session's measured span, for exercising degradation. Zero disables
	// it.
	FrameLoad time.Duration

	// Tracer overrides the global tracer provider for run and frame
	// spans. When nil, spans go through the global provider, whose
	// filter drops per-frame spans unless trace verbosity is enabled.
	Tracer trace.Tracer
}

// Loop drives a session from tick 0 to a score's end tick at a fixed
// frame rate, converting elapsed time to tick positions through the
// clock and fanning each frame result out to the observers.
type Loop struct {
	session     *highlight.Session
	clock       *Clock
	endTick     int64
	fps         int
	interval    time.Duration
	realtime    bool
	observers   []FrameObserver
	runTracer   trace.Tracer
	frameTracer trace.Tracer
}

// NewLoop creates a loop over the session. The caller has already loaded
// spans into the session; endTick is where playback stops, normally
// score.EndTick().
func NewLoop(session *highlight.Session, clock *Clock, endTick int64, cfg Config, observers ...FrameObserver) *Loop {
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}

	if cfg.FrameLoad > 0 {
		session.SetFrameLoad(cfg.FrameLoad)
	}

	runTracer := cfg.Tracer
	frameTracer := cfg.Tracer

	if cfg.Tracer == nil {
		runTracer = otel.Tracer(tracerName)
		frameTracer = otel.Tracer(frameTracerName)
	}

	return &Loop{
		session:     session,
		clock:       clock,
		endTick:     endTick,
		fps:         fps,
		interval:    time.Second / time.Duration(fps),
		realtime:    cfg.Realtime,
		observers:   observers,
		runTracer:   runTracer,
		frameTracer: frameTracer,
	}
}

// Run plays the timeline to its end or until the context is cancelled,
// then stops the session. The returned stats cover the whole run.
func (l *Loop) Run(ctx context.Context) (highlight.SessionStats, error) {
	ctx, span := l.runTracer.Start(ctx, "musicore.playback.run",
		trace.WithAttributes(
			attribute.Int("playback.fps", l.fps),
			attribute.Bool("playback.realtime", l.realtime),
			attribute.Int64("playback.end_tick", l.endTick),
		),
	)
	defer span.End()

	defer l.session.Stop()

	var (
		stats highlight.SessionStats
		err   error
	)

	if l.realtime {
		stats, err = l.runRealtime(ctx)
	} else {
		stats, err = l.runVirtual(ctx)
	}

	span.SetAttributes(
		attribute.Int64("playback.frames_processed", int64(stats.FramesProcessed)),
		attribute.Int64("playback.frames_skipped", int64(stats.FramesSkipped)),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return stats, err
}

func (l *Loop) runVirtual(ctx context.Context) (highlight.SessionStats, error) {
	var elapsed time.Duration

	for {
		err := ctx.Err()
		if err != nil {
			return l.session.Stats(), err
		}

		tick := l.clock.TickAt(elapsed)
		if tick >= l.endTick {
			l.finalFrame(ctx)

			return l.session.Stats(), nil
		}

		l.frame(ctx, tick)

		elapsed += l.interval
	}
}

func (l *Loop) runRealtime(ctx context.Context) (highlight.SessionStats, error) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	start := time.Now()

	for {
		tick := l.clock.TickAt(time.Since(start))
		if tick >= l.endTick {
			l.finalFrame(ctx)

			return l.session.Stats(), nil
		}

		l.frame(ctx, tick)

		select {
		case <-ctx.Done():
			return l.session.Stats(), ctx.Err()
		case <-ticker.C:
		}
	}
}

// frame advances the session one frame and fans the result out.
func (l *Loop) frame(ctx context.Context, tick int64) highlight.FrameResult {
	_, span := l.frameTracer.Start(ctx, "musicore.frame.advance")

	result := l.session.Advance(tick)

	span.SetAttributes(
		attribute.Int64("frame.tick", tick),
		attribute.Bool("frame.skipped", result.Skipped),
		attribute.Int("frame.active", result.Active),
	)

	for _, obs := range l.observers {
		obs.ObserveFrame(result)
	}

	span.End()

	return result
}

// finalFrame flushes remaining highlights at the end tick, where the
// half-open spans have all gone inactive. A degraded monitor may skip the
// first attempt; the alternation guarantees the retry is processed, so a
// run always ends with an applied empty set.
func (l *Loop) finalFrame(ctx context.Context) {
	if res := l.frame(ctx, l.endTick); res.Skipped {
		l.frame(ctx, l.endTick)
	}
}
