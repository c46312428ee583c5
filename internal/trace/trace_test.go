package trace

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylabs/musicore-playback/internal/playback"
	"github.com/aylabs/musicore-playback/internal/score"
	"github.com/aylabs/musicore-playback/pkg/highlight"
)

const (
	testBudget = 8 * time.Millisecond
	testFPS    = 60
)

// frameAt builds a processed frame result with the given patch.
func frameAt(tick int64, added, removed []string, active int) highlight.FrameResult {
	return highlight.FrameResult{
		Tick:     tick,
		Patch:    highlight.Patch{Added: added, Removed: removed, Unchanged: len(added) == 0 && len(removed) == 0},
		Active:   active,
		Duration: 1500 * time.Microsecond,
	}
}

// TestRecorder_CapturesFrames verifies sequence numbering and the
// processed/skipped split.
func TestRecorder_CapturesFrames(t *testing.T) {
	t.Parallel()

	r := NewRecorder("dense", testBudget, testFPS)

	r.ObserveFrame(frameAt(0, []string{"n1"}, nil, 1))
	r.ObserveFrame(highlight.FrameResult{Tick: 16, Skipped: true, Degraded: true})
	r.ObserveFrame(frameAt(32, nil, []string{"n1"}, 0))

	tr := r.Trace()

	assert.Equal(t, "dense", tr.Score)
	assert.Equal(t, testBudget, tr.Budget())
	assert.Equal(t, testFPS, tr.FPS)
	require.Len(t, tr.Frames, 3)

	assert.Equal(t, 0, tr.Frames[0].Seq)
	assert.Equal(t, []string{"n1"}, tr.Frames[0].Added)
	assert.Equal(t, int64(1500), tr.Frames[0].DurationMicros)

	assert.Equal(t, 1, tr.Frames[1].Seq)
	assert.True(t, tr.Frames[1].Skipped)
	assert.Empty(t, tr.Frames[1].Added)

	assert.Equal(t, []string{"n1"}, tr.Frames[2].Removed)
}

// TestRecorder_RecordsLoopRun verifies a recorder observing a full virtual
// run captures every frame including the final flush.
func TestRecorder_RecordsLoopRun(t *testing.T) {
	t.Parallel()

	s := score.GenerateDense(1)
	session := highlight.NewSession(nil, time.Hour, 5)
	session.LoadSpans(s.Flatten())

	r := NewRecorder(s.ID, time.Hour, testFPS)
	loop := playback.NewLoop(session, playback.NewClockForScore(s), s.EndTick(), playback.Config{FPS: testFPS}, r)

	stats, err := loop.Run(context.Background())
	require.NoError(t, err)

	tr := r.Trace()
	require.Len(t, tr.Frames, int(stats.FramesProcessed+stats.FramesSkipped))

	last := tr.Frames[len(tr.Frames)-1]
	assert.Equal(t, s.EndTick(), last.Tick)
	assert.Equal(t, 0, last.Active)
	assert.NotEmpty(t, last.Removed)
}

// TestSaveLoad_RoundTrip verifies persistence in both plain and
// compressed forms.
func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	r := NewRecorder("dense", testBudget, testFPS)
	r.ObserveFrame(frameAt(0, []string{"n1", "n2"}, nil, 2))
	r.ObserveFrame(frameAt(480, []string{"n3"}, []string{"n1"}, 2))

	for _, name := range []string{"run.json", "run.json.lz4"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)

			require.NoError(t, Save(path, r.Trace()))

			loaded, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, r.Trace(), loaded)
		})
	}
}

// TestLoad_MissingFile verifies the open error path.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))

	require.Error(t, err)
}

// TestCompare_EqualRunsIgnoreTiming verifies that identical decisions with
// different measured costs compare equal.
func TestCompare_EqualRunsIgnoreTiming(t *testing.T) {
	t.Parallel()

	left := NewRecorder("dense", testBudget, testFPS)
	right := NewRecorder("dense", testBudget, testFPS)

	left.ObserveFrame(frameAt(0, []string{"n1"}, nil, 1))
	right.ObserveFrame(highlight.FrameResult{
		Tick:     0,
		Patch:    highlight.Patch{Added: []string{"n1"}},
		Active:   1,
		Duration: 9 * time.Millisecond,
	})

	div := Compare(left.Trace(), right.Trace())

	assert.True(t, div.Equal)
	assert.Equal(t, 1, div.EqualLines)
	assert.Equal(t, -1, div.FirstSeq)
}

// TestCompare_IgnoresPatchOrder verifies id order inside a patch does not
// count as divergence.
func TestCompare_IgnoresPatchOrder(t *testing.T) {
	t.Parallel()

	left := NewRecorder("dense", testBudget, testFPS)
	right := NewRecorder("dense", testBudget, testFPS)

	left.ObserveFrame(frameAt(0, []string{"a", "b"}, nil, 2))
	right.ObserveFrame(frameAt(0, []string{"b", "a"}, nil, 2))

	assert.True(t, Compare(left.Trace(), right.Trace()).Equal)
}

// TestCompare_ReportsFirstDivergence verifies counts and the location of
// the first differing frame.
func TestCompare_ReportsFirstDivergence(t *testing.T) {
	t.Parallel()

	left := NewRecorder("dense", testBudget, testFPS)
	right := NewRecorder("dense", testBudget, testFPS)

	for _, r := range []*Recorder{left, right} {
		r.ObserveFrame(frameAt(0, []string{"n1"}, nil, 1))
		r.ObserveFrame(frameAt(480, nil, nil, 1))
	}

	// The traces agree for two frames, then the skip decisions differ.
	left.ObserveFrame(frameAt(960, []string{"n2"}, []string{"n1"}, 1))
	right.ObserveFrame(highlight.FrameResult{Tick: 960, Skipped: true})

	div := Compare(left.Trace(), right.Trace())

	assert.False(t, div.Equal)
	assert.Equal(t, 2, div.EqualLines)
	assert.Equal(t, 1, div.DeletedLines)
	assert.Equal(t, 1, div.InsertedLines)
	assert.Equal(t, 2, div.FirstSeq)
	assert.Contains(t, div.FirstDeleted, "skipped=false")
	assert.Contains(t, div.FirstInserted, "skipped=true")
}

// TestCompare_ExtraFrames verifies a longer right-hand trace reports pure
// insertions.
func TestCompare_ExtraFrames(t *testing.T) {
	t.Parallel()

	left := NewRecorder("dense", testBudget, testFPS)
	right := NewRecorder("dense", testBudget, testFPS)

	left.ObserveFrame(frameAt(0, []string{"n1"}, nil, 1))
	right.ObserveFrame(frameAt(0, []string{"n1"}, nil, 1))
	right.ObserveFrame(frameAt(480, nil, nil, 1))

	div := Compare(left.Trace(), right.Trace())

	assert.False(t, div.Equal)
	assert.Equal(t, 1, div.EqualLines)
	assert.Equal(t, 0, div.DeletedLines)
	assert.Equal(t, 1, div.InsertedLines)
	assert.Equal(t, 1, div.FirstSeq)
	assert.Empty(t, div.FirstDeleted)
}
