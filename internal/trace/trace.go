// Package trace records playback runs frame by frame, persists them, and
// compares recordings for regression checks. A trace captures everything a
// run decided (ticks, skips, patch contents) plus the measured frame costs,
// so two runs can be compared semantically while timing noise is ignored.
package trace

import (
	"time"

	"github.com/aylabs/musicore-playback/internal/playback"
	"github.com/aylabs/musicore-playback/pkg/highlight"
)

// Frame is one recorded frame of a run.
type Frame struct {
	Seq            int      `json:"seq"`
	Tick           int64    `json:"tick"`
	Skipped        bool     `json:"skipped,omitempty"`
	DurationMicros int64    `json:"duration_micros"`
	Active         int      `json:"active"`
	Added          []string `json:"added,omitempty"`
	Removed        []string `json:"removed,omitempty"`
}

// Trace is a complete recorded run.
type Trace struct {
	Score        string  `json:"score"`
	BudgetMicros int64   `json:"budget_micros"`
	FPS          int     `json:"fps"`
	Frames       []Frame `json:"frames"`
}

// Budget returns the frame budget the run was recorded with.
func (t *Trace) Budget() time.Duration {
	return time.Duration(t.BudgetMicros) * time.Microsecond
}

// Recorder captures frame results into a Trace.
type Recorder struct {
	trace Trace
}

var (
	_ playback.FrameObserver = (*Recorder)(nil)
	_ highlight.Renderer     = (*Recorder)(nil)
)

// NewRecorder creates a recorder for a run over the named score with the
// given frame budget and rate.
func NewRecorder(scoreID string, budget time.Duration, fps int) *Recorder {
	return &Recorder{trace: Trace{
		Score:        scoreID,
		BudgetMicros: budget.Microseconds(),
		FPS:          fps,
	}}
}

// ObserveFrame implements playback.FrameObserver.
func (r *Recorder) ObserveFrame(res highlight.FrameResult) {
	frame := Frame{
		Seq:            len(r.trace.Frames),
		Tick:           res.Tick,
		Skipped:        res.Skipped,
		DurationMicros: res.Duration.Microseconds(),
		Active:         res.Active,
	}

	if !res.Patch.Unchanged {
		frame.Added = res.Patch.Added
		frame.Removed = res.Patch.Removed
	}

	r.trace.Frames = append(r.trace.Frames, frame)
}

// ApplyPatch implements highlight.Renderer as a no-op, so a recorder can
// stand where a renderer is required and capture through observation
// alone.
func (r *Recorder) ApplyPatch(highlight.Patch) {}

// Trace returns the recording. The recorder keeps appending to the same
// trace if observation continues.
func (r *Recorder) Trace() *Trace {
	return &r.trace
}
