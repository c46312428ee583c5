package highlight

import "time"

// Monitor defaults. 8ms leaves half of a 60fps frame interval for work
// outside the highlight pipeline (audio scheduling, layout, paint).
const (
	// DefaultFrameBudget is the per-frame allowance used when
	// NewBudgetMonitor receives a non-positive budget.
	DefaultFrameBudget = 8 * time.Millisecond

	// DefaultDegradationThreshold is the consecutive-frame count that
	// flips the monitor between Normal and Degraded when
	// NewBudgetMonitor receives a non-positive threshold.
	DefaultDegradationThreshold = 5
)

// BudgetMonitor tracks per-frame processing cost against a fixed budget and
// switches between two states, Normal and Degraded. Sustained overruns
// (threshold consecutive frames over budget) enter Degraded; sustained
// compliance (threshold consecutive frames within budget) recovers. While
// Degraded, ShouldSkipFrame reports true for every other frame, halving the
// effective update rate so audio timing keeps its headroom.
//
// A single slow frame never flips the state: one in-budget frame zeroes the
// overrun streak and one overrun zeroes the compliance streak, so only
// unbroken runs cause transitions.
//
// A BudgetMonitor belongs to one playback session and is not safe for
// concurrent use.
type BudgetMonitor struct {
	budget    time.Duration
	threshold int

	overruns int
	within   int
	degraded bool
	parity   int
}

// NewBudgetMonitor creates a monitor with the given per-frame budget and
// consecutive-frame threshold. Non-positive arguments fall back to
// DefaultFrameBudget and DefaultDegradationThreshold.
func NewBudgetMonitor(budget time.Duration, threshold int) *BudgetMonitor {
	if budget <= 0 {
		budget = DefaultFrameBudget
	}

	if threshold <= 0 {
		threshold = DefaultDegradationThreshold
	}

	return &BudgetMonitor{budget: budget, threshold: threshold}
}

// StartFrame returns the timestamp to later hand to EndFrame. The value
// carries Go's monotonic clock reading, so the measured elapsed time is
// immune to wall-clock adjustments.
func (m *BudgetMonitor) StartFrame() time.Time {
	return time.Now()
}

// EndFrame records the cost of the frame that began at start and advances
// the state machine. Exactly one streak counter moves per call: an overrun
// increments the overrun streak and zeroes the compliance streak, an
// in-budget frame does the reverse. Crossing the threshold while in the
// opposite state transitions.
func (m *BudgetMonitor) EndFrame(start time.Time) {
	elapsed := time.Since(start)

	if elapsed > m.budget {
		m.overruns++
		m.within = 0

		if !m.degraded && m.overruns >= m.threshold {
			m.degraded = true
			m.parity = 0
		}

		return
	}

	m.within++
	m.overruns = 0

	if m.degraded && m.within >= m.threshold {
		m.degraded = false
	}
}

// ShouldSkipFrame reports whether the caller should drop this frame's
// highlight work. In Normal state it always reports false and mutates
// nothing. In Degraded state it advances an internal parity counter, so it
// must be called exactly once per frame: the first frame after entering
// Degraded is skipped, then skipped and processed frames alternate.
func (m *BudgetMonitor) ShouldSkipFrame() bool {
	if !m.degraded {
		return false
	}

	skip := m.parity%2 == 0
	m.parity++

	return skip
}

// Reset zeroes both streak counters and the skip parity and forces the
// state back to Normal. Called on playback stop so the next session starts
// clean.
func (m *BudgetMonitor) Reset() {
	m.overruns = 0
	m.within = 0
	m.degraded = false
	m.parity = 0
}

// Degraded reports whether the monitor is currently in the Degraded state.
func (m *BudgetMonitor) Degraded() bool {
	return m.degraded
}

// Budget returns the per-frame allowance the monitor compares against.
func (m *BudgetMonitor) Budget() time.Duration {
	return m.budget
}

// Threshold returns the consecutive-frame count required for a state
// transition.
func (m *BudgetMonitor) Threshold() int {
	return m.threshold
}
