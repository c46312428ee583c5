package score

import "fmt"

// Fixture layout constants.
const (
	// DefaultDenseMeasures is the measure count of the standard dense fixture.
	DefaultDenseMeasures = 30

	// EighthNoteTicks is the duration of one eighth note.
	EighthNoteTicks = TicksPerQuarter / 2

	// notesPerMeasure is how many eighths fill a 4/4 measure.
	notesPerMeasure = 8

	// trebleNoteIDBase and bassNoteIDBase seed the per-hand note id counters.
	trebleNoteIDBase = 10
	bassNoteIDBase   = 10000
)

// Stable fixture identifiers, kept constant so traces and tests can refer
// to specific notes across runs.
const (
	denseScoreID       = "aa0e8400-e29b-41d4-a716-446655440000"
	denseInstrumentID  = "bb0e8400-e29b-41d4-a716-446655440001"
	denseTrebleStaffID = "cc0e8400-e29b-41d4-a716-446655440002"
	denseBassStaffID   = "dd0e8400-e29b-41d4-a716-446655440003"
	denseTrebleVoiceID = "ee0e8400-e29b-41d4-a716-446655440004"
	denseBassVoiceID   = "ff0e8400-e29b-41d4-a716-446655440005"
)

// Scale patterns cycled through each measure: C4..C5 in the right hand,
// C3..C4 in the left.
var (
	treblePitches = []uint8{60, 62, 64, 65, 67, 69, 71, 72}
	bassPitches   = []uint8{48, 50, 52, 53, 55, 57, 59, 60}
)

// GenerateDense builds a piano score of the given measure count with
// continuous eighth notes in both hands, 16 notes per measure. It is the
// deterministic workload used by benchmarks and the fixture command; the
// 30-measure variant carries 480 notes. Non-positive measure counts fall
// back to the default.
func GenerateDense(measures int) *Score {
	if measures <= 0 {
		measures = DefaultDenseMeasures
	}

	return &Score{
		ID: denseScoreID,
		Events: []StructuralEvent{
			{Tempo: &TempoEvent{
				Tick: TickValue{Value: 0},
				BPM:  BPMValue{Value: DefaultBPM},
			}},
			{TimeSignature: &TimeSignatureEvent{
				Tick:        TickValue{Value: 0},
				Numerator:   4,
				Denominator: 4,
			}},
		},
		Instruments: []Instrument{{
			ID:   denseInstrumentID,
			Name: "Piano",
			Type: "piano",
			Staves: []Staff{
				{
					ID:     denseTrebleStaffID,
					Events: staffOpening("Treble"),
					Voices: []Voice{{
						ID:    denseTrebleVoiceID,
						Notes: denseHand(measures, "tn", trebleNoteIDBase, treblePitches),
					}},
				},
				{
					ID:     denseBassStaffID,
					Events: staffOpening("Bass"),
					Voices: []Voice{{
						ID:    denseBassVoiceID,
						Notes: denseHand(measures, "bn", bassNoteIDBase, bassPitches),
					}},
				},
			},
		}},
	}
}

// staffOpening returns the tick-zero clef and key signature pair every
// fixture staff starts with.
func staffOpening(clef string) []StaffEvent {
	return []StaffEvent{
		{Clef: &ClefEvent{Tick: TickValue{Value: 0}, Clef: clef}},
		{KeySignature: &KeySignatureEvent{Tick: TickValue{Value: 0}, Fifths: 0}},
	}
}

// denseHand fills one voice with eighth notes cycling through the scale
// pattern, ids numbered from counterBase in note order.
func denseHand(measures int, idPrefix string, counterBase int, pitches []uint8) []Note {
	notes := make([]Note, 0, measures*notesPerMeasure)
	counter := counterBase

	for measure := 0; measure < measures; measure++ {
		measureStart := int64(measure) * TicksPerMeasure44

		for i := 0; i < notesPerMeasure; i++ {
			notes = append(notes, Note{
				ID:            fmt.Sprintf("%s%04d-8400-e29b-41d4-a716-446655440000", idPrefix, counter),
				StartTick:     TickValue{Value: measureStart + int64(i)*EighthNoteTicks},
				DurationTicks: EighthNoteTicks,
				Pitch:         PitchValue{Value: pitches[i%len(pitches)]},
			})

			counter++
		}
	}

	return notes
}
