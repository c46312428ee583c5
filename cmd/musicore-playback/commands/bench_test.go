package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchCommand_RunsOnFixture(t *testing.T) {
	t.Parallel()

	root := testRoot(t, NewBenchCommand())

	out, err := execute(t, root, "bench", "--measures", "2", "--queries", "500")
	require.NoError(t, err)

	// Two dense measures carry 32 notes: 8 eighths per hand per measure.
	assert.Contains(t, out, "Notes indexed")
	assert.Contains(t, out, "32")
	assert.Contains(t, out, "Queries/sec")
}

func TestBenchCommand_RunsOnScoreFile(t *testing.T) {
	t.Parallel()

	scorePath := writeDenseScore(t, 2)
	root := testRoot(t, NewBenchCommand())

	out, err := execute(t, root, "bench", scorePath, "--queries", "200")
	require.NoError(t, err)
	assert.Contains(t, out, "Build time")
}

func TestBenchCommand_InvalidQueries(t *testing.T) {
	t.Parallel()

	root := testRoot(t, NewBenchCommand())

	_, err := execute(t, root, "bench", "--queries", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQueries)
}

func TestBenchCommand_QuietSuppressesTable(t *testing.T) {
	t.Parallel()

	root := testRoot(t, NewBenchCommand())

	out, err := execute(t, root, "-q", "bench", "--measures", "1", "--queries", "100")
	require.NoError(t, err)
	assert.NotContains(t, out, "Notes indexed")
}

func TestSplitmix64_DeterministicAndBounded(t *testing.T) {
	t.Parallel()

	a := splitmix64{state: 42}
	b := splitmix64{state: 42}

	for range 100 {
		got := a.int64n(1000)
		assert.Equal(t, got, b.int64n(1000))
		assert.GreaterOrEqual(t, got, int64(0))
		assert.Less(t, got, int64(1000))
	}
}
