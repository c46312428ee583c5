// Package highlight implements the playback highlight engine: a point-in-time
// interval index over note spans, patch computation between consecutive
// frames, and a frame-budget monitor that skips alternating frames under
// sustained overruns. A Session composes the three into a per-frame pipeline.
//
// Ticks are plain int64 positions on the musical timeline; the package
// attaches no unit to them. A note is active at tick t exactly when
// start <= t < start+duration, so a note ending at tick 960 is no longer
// active at 960 and a zero-duration note is never active.
package highlight

import (
	"cmp"
	"slices"
	"sort"
)

// NoteSpan describes one note's lifetime on the tick timeline.
type NoteSpan struct {
	// ID identifies the note; it is what queries return.
	ID string

	// StartTick is the tick at which the note begins sounding.
	StartTick int64

	// DurationTicks is the length of the note. Zero means the note
	// occupies no time and never matches a query.
	DurationTicks int64
}

// entry is the indexed form of a span with its end tick precomputed.
type entry struct {
	id    string
	start int64
	end   int64
}

// Index answers "which notes sound at tick t" queries over a fixed set of
// note spans. Build sorts the spans by start tick and caches the maximum
// span length; Query then binary-searches for the insertion point of t and
// scans backward no further than that maximum, giving O(log n + k) lookups
// without an augmented tree.
//
// An Index is not safe for concurrent use.
type Index struct {
	entries []entry
	maxSpan int64
}

// NewIndex creates an empty index. Build must be called before queries
// return anything.
func NewIndex() *Index {
	return &Index{}
}

// Build replaces the index contents with the given spans. Prior state is
// discarded, so rebuilding after a score edit is a single call. The input
// slice is not retained. O(n log n).
func (ix *Index) Build(spans []NoteSpan) {
	ix.entries = ix.entries[:0]
	ix.maxSpan = 0

	if cap(ix.entries) < len(spans) {
		ix.entries = make([]entry, 0, len(spans))
	}

	for _, s := range spans {
		e := entry{id: s.ID, start: s.StartTick, end: s.StartTick + s.DurationTicks}

		if span := e.end - e.start; span > ix.maxSpan {
			ix.maxSpan = span
		}

		ix.entries = append(ix.entries, e)
	}

	slices.SortStableFunc(ix.entries, func(a, b entry) int {
		return cmp.Compare(a.start, b.start)
	})
}

// Query returns the ids of all notes active at the given tick, in
// unspecified order. Allocates a fresh slice per call; use AppendActive on
// hot paths.
func (ix *Index) Query(tick int64) []string {
	return ix.AppendActive(nil, tick)
}

// AppendActive appends the ids of all notes active at the given tick to dst
// and returns the extended slice. Passing dst[:0] across frames reuses the
// backing array. O(log n + k) where k is bounded by the number of spans
// starting within maxSpan ticks before the query point.
func (ix *Index) AppendActive(dst []string, tick int64) []string {
	if len(ix.entries) == 0 {
		return dst
	}

	// First index whose start is strictly after the query tick. Everything
	// from here on cannot have started yet.
	pos := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].start > tick
	})

	// Scan backward. Any active entry must start within maxSpan ticks of
	// the query point, so the scan stops at the first start below that
	// horizon.
	horizon := tick - ix.maxSpan

	for i := pos - 1; i >= 0; i-- {
		e := &ix.entries[i]

		if e.start < horizon {
			break
		}

		if e.end > tick {
			dst = append(dst, e.id)
		}
	}

	return dst
}

// Clear removes all spans from the index.
func (ix *Index) Clear() {
	ix.entries = ix.entries[:0]
	ix.maxSpan = 0
}

// Len returns the number of indexed spans.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// MaxSpan returns the length of the longest indexed span, or 0 for an
// empty index.
func (ix *Index) MaxSpan() int64 {
	return ix.maxSpan
}
