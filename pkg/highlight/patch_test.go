package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDiff_BothEmptyFastPath verifies the empty-to-empty transition reports
// unchanged without touching either input.
func TestDiff_BothEmptyFastPath(t *testing.T) {
	t.Parallel()

	patch := Diff(nil, nil)
	assert.True(t, patch.Unchanged)
	assert.Empty(t, patch.Added)
	assert.Empty(t, patch.Removed)

	patch = Diff(map[string]struct{}{}, []string{})
	assert.True(t, patch.Unchanged)
	assert.Empty(t, patch.Added)
	assert.Empty(t, patch.Removed)
}

// TestDiff_IdenticalSetsUnchanged verifies equal sets produce an unchanged
// patch regardless of slice order.
func TestDiff_IdenticalSetsUnchanged(t *testing.T) {
	t.Parallel()

	previous := NewIDSet([]string{"a", "b", "c"})

	patch := Diff(previous, []string{"c", "a", "b"})
	assert.True(t, patch.Unchanged)
	assert.Empty(t, patch.Added)
	assert.Empty(t, patch.Removed)
}

// TestDiff_FullReplacement verifies disjoint sets report everything added
// and everything removed.
func TestDiff_FullReplacement(t *testing.T) {
	t.Parallel()

	previous := NewIDSet([]string{"a", "b"})

	patch := Diff(previous, []string{"c", "d"})
	assert.False(t, patch.Unchanged)
	assert.ElementsMatch(t, []string{"c", "d"}, patch.Added)
	assert.ElementsMatch(t, []string{"a", "b"}, patch.Removed)
}

// TestDiff_PartialOverlap verifies only the changed ids appear in the patch.
func TestDiff_PartialOverlap(t *testing.T) {
	t.Parallel()

	previous := NewIDSet([]string{"a", "b", "c"})

	patch := Diff(previous, []string{"b", "c", "d"})
	assert.False(t, patch.Unchanged)
	assert.ElementsMatch(t, []string{"d"}, patch.Added)
	assert.ElementsMatch(t, []string{"a"}, patch.Removed)
}

// TestDiff_DuplicateCurrentIDs verifies repeated ids in the query result
// contribute a single added entry.
func TestDiff_DuplicateCurrentIDs(t *testing.T) {
	t.Parallel()

	patch := Diff(nil, []string{"a", "a", "b", "a"})
	assert.False(t, patch.Unchanged)
	assert.ElementsMatch(t, []string{"a", "b"}, patch.Added)
	assert.Empty(t, patch.Removed)
}

// TestDiff_EmptyToSomething verifies the first notes of a playback all
// arrive as additions.
func TestDiff_EmptyToSomething(t *testing.T) {
	t.Parallel()

	patch := Diff(nil, []string{"a", "b"})
	assert.False(t, patch.Unchanged)
	assert.ElementsMatch(t, []string{"a", "b"}, patch.Added)
	assert.Empty(t, patch.Removed)
}

// TestDiff_SomethingToEmpty verifies silence after a chord removes every id.
func TestDiff_SomethingToEmpty(t *testing.T) {
	t.Parallel()

	previous := NewIDSet([]string{"a", "b"})

	patch := Diff(previous, nil)
	assert.False(t, patch.Unchanged)
	assert.Empty(t, patch.Added)
	assert.ElementsMatch(t, []string{"a", "b"}, patch.Removed)
}

// TestDiff_DoesNotMutateInputs verifies previous survives a diff untouched.
func TestDiff_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	previous := NewIDSet([]string{"a", "b"})
	current := []string{"b", "c"}

	_ = Diff(previous, current)

	assert.Len(t, previous, 2)
	assert.Contains(t, previous, "a")
	assert.Contains(t, previous, "b")
	assert.Equal(t, []string{"b", "c"}, current)
}

// TestNewIDSet_Deduplicates verifies set construction collapses repeats.
func TestNewIDSet_Deduplicates(t *testing.T) {
	t.Parallel()

	set := NewIDSet([]string{"a", "b", "a"})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "a")
	assert.Contains(t, set, "b")
}
