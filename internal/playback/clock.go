// Package playback drives highlight sessions through time: a tempo-map
// clock converts elapsed playback time to ticks, and a fixed-fps loop feeds
// the resulting tick positions into a session, either in realtime or
// virtually for simulation.
package playback

import (
	"sort"
	"time"

	"github.com/aylabs/musicore-playback/internal/score"
)

// segment is one constant-tempo stretch of the timeline, with its start
// position precomputed in both domains.
type segment struct {
	startTick      int64
	startTime      time.Duration
	ticksPerSec    float64
	secondsPerTick float64
}

// Clock converts elapsed playback time to tick positions over a piecewise
// tempo map. Each segment advances at bpm*960/60 ticks per second. The
// conversion is computed from absolute elapsed time on every call, so
// fractional ticks never accumulate drift across frames.
//
// A Clock is immutable after construction and safe for concurrent use.
type Clock struct {
	segments []segment
}

// NewClock builds a clock from tempo changes as produced by
// score.TempoMap: sorted by tick with the first entry at tick 0. An empty
// list yields a single default-tempo segment.
func NewClock(changes []score.TempoChange) *Clock {
	if len(changes) == 0 {
		changes = []score.TempoChange{{Tick: 0, BPM: score.DefaultBPM}}
	}

	segments := make([]segment, 0, len(changes))

	var elapsed time.Duration

	for i, c := range changes {
		tps := c.BPM * score.TicksPerQuarter / 60

		if i > 0 {
			prev := segments[i-1]
			deltaTicks := c.Tick - prev.startTick
			elapsed = prev.startTime + time.Duration(float64(deltaTicks)*prev.secondsPerTick*float64(time.Second))
		}

		segments = append(segments, segment{
			startTick:      c.Tick,
			startTime:      elapsed,
			ticksPerSec:    tps,
			secondsPerTick: 1 / tps,
		})
	}

	return &Clock{segments: segments}
}

// NewClockForScore resolves the score's tempo map into a clock.
func NewClockForScore(s *score.Score) *Clock {
	return NewClock(s.TempoMap())
}

// TickAt returns the tick position reached after the given elapsed time.
// Negative elapsed times map to tick 0.
func (c *Clock) TickAt(elapsed time.Duration) int64 {
	if elapsed <= 0 {
		return 0
	}

	seg := c.segmentForTime(elapsed)
	intoSeg := (elapsed - seg.startTime).Seconds()

	return seg.startTick + int64(intoSeg*seg.ticksPerSec)
}

// TimeAt returns the elapsed time at which the given tick is reached.
// Negative ticks map to zero.
func (c *Clock) TimeAt(tick int64) time.Duration {
	if tick <= 0 {
		return 0
	}

	seg := c.segmentForTick(tick)
	intoSeg := float64(tick-seg.startTick) * seg.secondsPerTick

	return seg.startTime + time.Duration(intoSeg*float64(time.Second))
}

// segmentForTime finds the last segment starting at or before elapsed.
func (c *Clock) segmentForTime(elapsed time.Duration) segment {
	pos := sort.Search(len(c.segments), func(i int) bool {
		return c.segments[i].startTime > elapsed
	})

	return c.segments[pos-1]
}

// segmentForTick finds the last segment starting at or before tick.
func (c *Clock) segmentForTick(tick int64) segment {
	pos := sort.Search(len(c.segments), func(i int) bool {
		return c.segments[i].startTick > tick
	})

	return c.segments[pos-1]
}
