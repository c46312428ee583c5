package score

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateDense_Shape verifies the dense fixture's note count, id
// numbering, and timeline extent for the standard 30-measure form.
func TestGenerateDense_Shape(t *testing.T) {
	t.Parallel()

	s := GenerateDense(DefaultDenseMeasures)

	require.NoError(t, s.Validate())
	assert.Equal(t, 480, s.NoteCount())
	assert.Equal(t, int64(DefaultDenseMeasures*TicksPerMeasure44), s.EndTick())

	require.Len(t, s.Instruments, 1)
	require.Len(t, s.Instruments[0].Staves, 2)

	treble := s.Instruments[0].Staves[0].Voices[0].Notes
	bass := s.Instruments[0].Staves[1].Voices[0].Notes

	require.Len(t, treble, 240)
	require.Len(t, bass, 240)

	assert.Equal(t, "tn0010-8400-e29b-41d4-a716-446655440000", treble[0].ID)
	assert.Equal(t, "bn10000-8400-e29b-41d4-a716-446655440000", bass[0].ID)
	assert.Equal(t, uint8(60), treble[0].Pitch.Value)
	assert.Equal(t, uint8(48), bass[0].Pitch.Value)

	// Second measure restarts the scale pattern at the measure boundary.
	assert.Equal(t, int64(TicksPerMeasure44), treble[notesPerMeasure].StartTick.Value)
	assert.Equal(t, uint8(60), treble[notesPerMeasure].Pitch.Value)
}

// TestGenerateDense_DefaultsMeasureCount verifies the fallback for
// non-positive measure counts.
func TestGenerateDense_DefaultsMeasureCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 480, GenerateDense(0).NoteCount())
	assert.Equal(t, 480, GenerateDense(-3).NoteCount())
	assert.Equal(t, 32, GenerateDense(2).NoteCount())
}

// TestGenerateDense_RoundTripsThroughJSON verifies that the generated
// fixture encodes to JSON that passes the embedded schema and decodes back
// to an identical document.
func TestGenerateDense_RoundTripsThroughJSON(t *testing.T) {
	t.Parallel()

	s := GenerateDense(2)

	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, s))

	decoded, err := DecodeJSON(&buf)
	require.NoError(t, err)

	assert.Equal(t, s, decoded)
}
