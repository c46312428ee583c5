package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylabs/musicore-playback/internal/score"
)

func TestFixtureCommand_WritesLoadableScore(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "fixture.json")
	root := testRoot(t, NewFixtureCommand())

	out, err := execute(t, root, "fixture", "-o", outPath, "--measures", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	sc, loadErr := score.Load(outPath)
	require.NoError(t, loadErr)
	assert.Equal(t, 32, sc.NoteCount())
	assert.Equal(t, int64(2*score.TicksPerMeasure44), sc.EndTick())
}

func TestFixtureCommand_DefaultMeasures(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "fixture.json")
	root := testRoot(t, NewFixtureCommand())

	_, err := execute(t, root, "fixture", "-o", outPath)
	require.NoError(t, err)

	sc, loadErr := score.Load(outPath)
	require.NoError(t, loadErr)

	// Eight eighths per hand per measure, two hands.
	wantNotes := score.DefaultDenseMeasures * 16
	assert.Equal(t, wantNotes, sc.NoteCount())
}
