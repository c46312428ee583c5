package highlight

import "time"

// Renderer applies highlight patches to an external display surface.
// Implementations toggle per-note visual state incrementally; they never
// see the full active set.
type Renderer interface {
	ApplyPatch(patch Patch)
}

// FrameResult reports what one Advance call did.
type FrameResult struct {
	// Tick is the timeline position the frame was evaluated at.
	Tick int64

	// Skipped is true when the monitor dropped the frame; no query, diff,
	// or render happened and the previous highlight state stands.
	Skipped bool

	// Patch is the computed update. Zero value when Skipped.
	Patch Patch

	// Active is the number of notes sounding at Tick. Zero when Skipped.
	Active int

	// Duration is the measured cost of query+diff+apply. Zero when Skipped.
	Duration time.Duration

	// Degraded is the monitor state after the frame.
	Degraded bool
}

// SessionStats accumulates per-session counters across Advance calls.
type SessionStats struct {
	FramesProcessed     uint64
	FramesSkipped       uint64
	PatchesApplied      uint64
	NotesAdded          uint64
	NotesRemoved        uint64
	DegradedTransitions uint64
}

// Session drives the highlight pipeline for one playback run: it owns the
// interval index, the budget monitor, the previous-frame id set, and a
// scratch buffer reused across queries. Sessions are independent; two
// concurrent playbacks get two Sessions and share nothing.
//
// A Session is single-owner state and is not safe for concurrent use.
type Session struct {
	index    *Index
	monitor  *BudgetMonitor
	renderer Renderer

	previous  map[string]struct{}
	scratch   []string
	stats     SessionStats
	frameLoad time.Duration
}

// NewSession creates a session rendering through renderer, with the given
// frame budget and degradation threshold (non-positive values fall back to
// the package defaults). A nil renderer is allowed; patches are then
// computed and remembered but applied nowhere, which suits pure
// measurement runs.
func NewSession(renderer Renderer, budget time.Duration, threshold int) *Session {
	return &Session{
		index:    NewIndex(),
		monitor:  NewBudgetMonitor(budget, threshold),
		renderer: renderer,
		previous: make(map[string]struct{}),
	}
}

// LoadSpans rebuilds the index from the given spans and forgets the
// previous highlight set. Called once per score load or reload.
func (s *Session) LoadSpans(spans []NoteSpan) {
	s.index.Build(spans)
	clear(s.previous)
}

// SetFrameLoad adds an artificial delay to every processed frame, inside
// the span the monitor measures. Simulations use it to push frames over
// budget and exercise the degradation path; skipped frames do not pay it,
// so skipping visibly recovers the cost.
func (s *Session) SetFrameLoad(d time.Duration) {
	s.frameLoad = d
}

// Advance runs the per-frame pipeline at the given tick: consult the
// monitor, and unless the frame is skipped, query the index, diff against
// the previous frame, apply the patch when something changed, remember the
// new set, and report the frame's cost back to the monitor. The monitor
// measures exactly the query+diff+apply span; skipped frames cost nothing
// and are not reported, so they never masquerade as recovery.
func (s *Session) Advance(tick int64) FrameResult {
	start := s.monitor.StartFrame()

	if s.monitor.ShouldSkipFrame() {
		s.stats.FramesSkipped++

		return FrameResult{Tick: tick, Skipped: true, Degraded: s.monitor.Degraded()}
	}

	if s.frameLoad > 0 {
		time.Sleep(s.frameLoad)
	}

	s.scratch = s.index.AppendActive(s.scratch[:0], tick)
	patch := Diff(s.previous, s.scratch)

	if !patch.Unchanged {
		if s.renderer != nil {
			s.renderer.ApplyPatch(patch)
		}

		// Applying the patch to the remembered set yields exactly the
		// current set, without rebuilding the map.
		for _, id := range patch.Removed {
			delete(s.previous, id)
		}

		for _, id := range patch.Added {
			s.previous[id] = struct{}{}
		}

		s.stats.PatchesApplied++
		s.stats.NotesAdded += uint64(len(patch.Added))
		s.stats.NotesRemoved += uint64(len(patch.Removed))
	}

	wasDegraded := s.monitor.Degraded()
	elapsed := time.Since(start)

	s.monitor.EndFrame(start)

	if !wasDegraded && s.monitor.Degraded() {
		s.stats.DegradedTransitions++
	}

	s.stats.FramesProcessed++

	return FrameResult{
		Tick:     tick,
		Patch:    patch,
		Active:   len(s.scratch),
		Duration: elapsed,
		Degraded: s.monitor.Degraded(),
	}
}

// Stop ends the playback run: the monitor resets to Normal and the
// previous highlight set clears, so the next run starts clean. The index
// is left intact; restarting the same score needs no rebuild.
func (s *Session) Stop() {
	s.monitor.Reset()
	clear(s.previous)
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() SessionStats {
	return s.stats
}

// NoteCount returns the number of spans currently indexed.
func (s *Session) NoteCount() int {
	return s.index.Len()
}

// Degraded reports whether the budget monitor is currently degraded.
func (s *Session) Degraded() bool {
	return s.monitor.Degraded()
}

// Budget returns the effective per-frame budget, after any fallback to
// DefaultFrameBudget.
func (s *Session) Budget() time.Duration {
	return s.monitor.Budget()
}
