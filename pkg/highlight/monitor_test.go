package highlight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Monitor test constants. The budget is generous and overruns are simulated
// by handing EndFrame a start timestamp shifted into the past, so the tests
// stay deterministic regardless of machine speed.
const (
	testBudget    = 250 * time.Millisecond
	testOverrun   = time.Second
	testThreshold = 5
)

// overrunFrame feeds the monitor one frame that exceeded the budget.
func overrunFrame(m *BudgetMonitor) {
	m.EndFrame(time.Now().Add(-testOverrun))
}

// withinFrame feeds the monitor one frame that stayed within the budget.
func withinFrame(m *BudgetMonitor) {
	m.EndFrame(time.Now())
}

// TestBudgetMonitor_Defaults verifies non-positive construction arguments
// fall back to the package defaults.
func TestBudgetMonitor_Defaults(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(0, 0)
	assert.Equal(t, DefaultFrameBudget, m.Budget())
	assert.Equal(t, DefaultDegradationThreshold, m.Threshold())

	m = NewBudgetMonitor(-time.Second, -3)
	assert.Equal(t, DefaultFrameBudget, m.Budget())
	assert.Equal(t, DefaultDegradationThreshold, m.Threshold())

	m = NewBudgetMonitor(testBudget, testThreshold)
	assert.Equal(t, testBudget, m.Budget())
	assert.Equal(t, testThreshold, m.Threshold())
}

// TestBudgetMonitor_StartsNormal verifies a fresh monitor neither skips nor
// reports degradation.
func TestBudgetMonitor_StartsNormal(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)
	assert.False(t, m.Degraded())
	assert.False(t, m.ShouldSkipFrame())
	assert.False(t, m.ShouldSkipFrame())
}

// TestBudgetMonitor_DegradesAtThreshold verifies four consecutive overruns
// keep the monitor Normal and the fifth degrades it.
func TestBudgetMonitor_DegradesAtThreshold(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)

	for range testThreshold - 1 {
		overrunFrame(m)
		assert.False(t, m.Degraded())
	}

	overrunFrame(m)
	assert.True(t, m.Degraded())
}

// TestBudgetMonitor_SingleGoodFrameResetsStreak verifies one in-budget
// frame among overruns restarts the countdown.
func TestBudgetMonitor_SingleGoodFrameResetsStreak(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)

	for range testThreshold - 1 {
		overrunFrame(m)
	}

	withinFrame(m)
	assert.False(t, m.Degraded())

	// The streak restarted, so threshold-1 more overruns still do not
	// degrade; the threshold-th does.
	for range testThreshold - 1 {
		overrunFrame(m)
		assert.False(t, m.Degraded())
	}

	overrunFrame(m)
	assert.True(t, m.Degraded())
}

// TestBudgetMonitor_RecoversAtThreshold verifies recovery needs the full
// run of in-budget frames.
func TestBudgetMonitor_RecoversAtThreshold(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)

	for range testThreshold {
		overrunFrame(m)
	}

	assert.True(t, m.Degraded())

	for range testThreshold - 1 {
		withinFrame(m)
		assert.True(t, m.Degraded())
	}

	withinFrame(m)
	assert.False(t, m.Degraded())
}

// TestBudgetMonitor_OverrunResetsRecoveryStreak verifies one overrun during
// recovery restarts the compliance countdown.
func TestBudgetMonitor_OverrunResetsRecoveryStreak(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)

	for range testThreshold {
		overrunFrame(m)
	}

	for range testThreshold - 1 {
		withinFrame(m)
	}

	overrunFrame(m)
	assert.True(t, m.Degraded())

	for range testThreshold - 1 {
		withinFrame(m)
		assert.True(t, m.Degraded())
	}

	withinFrame(m)
	assert.False(t, m.Degraded())
}

// TestBudgetMonitor_SkipAlternation verifies the degraded skip pattern:
// the first frame after degrading is skipped, then every other one.
func TestBudgetMonitor_SkipAlternation(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)

	for range testThreshold {
		overrunFrame(m)
	}

	want := []bool{true, false, true, false, true, false}

	got := make([]bool, 0, len(want))
	for range want {
		got = append(got, m.ShouldSkipFrame())
	}

	assert.Equal(t, want, got)
}

// TestBudgetMonitor_NormalSkipNeverMutates verifies calling ShouldSkipFrame
// in Normal state does not disturb the parity used after degrading.
func TestBudgetMonitor_NormalSkipNeverMutates(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)

	for range 10 {
		assert.False(t, m.ShouldSkipFrame())
	}

	for range testThreshold {
		overrunFrame(m)
	}

	// Parity starts fresh on degradation.
	assert.True(t, m.ShouldSkipFrame())
	assert.False(t, m.ShouldSkipFrame())
}

// TestBudgetMonitor_Reset verifies reset returns to a clean Normal state.
func TestBudgetMonitor_Reset(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)

	for range testThreshold {
		overrunFrame(m)
	}

	assert.True(t, m.Degraded())
	assert.True(t, m.ShouldSkipFrame())

	m.Reset()
	assert.False(t, m.Degraded())
	assert.False(t, m.ShouldSkipFrame())

	// Streaks restart from zero after reset.
	for range testThreshold - 1 {
		overrunFrame(m)
		assert.False(t, m.Degraded())
	}

	overrunFrame(m)
	assert.True(t, m.Degraded())
}

// TestBudgetMonitor_RedegradeRestartsParity verifies a second degradation
// spell also begins with a skipped frame.
func TestBudgetMonitor_RedegradeRestartsParity(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, testThreshold)

	for range testThreshold {
		overrunFrame(m)
	}

	// Consume an odd number of skip decisions, leaving parity mid-cycle.
	_ = m.ShouldSkipFrame()
	_ = m.ShouldSkipFrame()
	_ = m.ShouldSkipFrame()

	for range testThreshold {
		withinFrame(m)
	}

	assert.False(t, m.Degraded())

	for range testThreshold {
		overrunFrame(m)
	}

	assert.True(t, m.Degraded())
	assert.True(t, m.ShouldSkipFrame())
}

// TestBudgetMonitor_ExactBudgetIsWithin verifies a frame landing exactly on
// the budget counts as compliant, not as an overrun.
func TestBudgetMonitor_ExactBudgetIsWithin(t *testing.T) {
	t.Parallel()

	m := NewBudgetMonitor(testBudget, 1)

	// EndFrame sees elapsed > budget as the overrun condition, so an
	// elapsed far below budget must leave the monitor Normal even with
	// threshold 1.
	withinFrame(m)
	assert.False(t, m.Degraded())

	overrunFrame(m)
	assert.True(t, m.Degraded())
}
