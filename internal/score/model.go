// Package score models the notation document consumed by the playback
// engine and loads it from JSON or Standard MIDI files. The JSON layout
// mirrors the editor's score format: structural events carry their variant
// as the key of a single-entry object, and tick and pitch scalars arrive
// wrapped as {"value": n}.
package score

import (
	"cmp"
	"slices"

	"github.com/aylabs/musicore-playback/pkg/highlight"
)

// Timeline and domain constants.
const (
	// TicksPerQuarter is the fixed tick resolution of the score timeline.
	TicksPerQuarter = 960

	// TicksPerMeasure44 is the length of one 4/4 measure.
	TicksPerMeasure44 = 4 * TicksPerQuarter

	// DefaultBPM applies from tick 0 when a score carries no tempo event.
	DefaultBPM = 120

	// MinBPM and MaxBPM bound valid tempo values.
	MinBPM = 20
	MaxBPM = 400

	// MaxPitch is the highest valid MIDI pitch.
	MaxPitch = 127
)

// TickValue is the wrapped tick scalar used on the wire.
type TickValue struct {
	Value int64 `json:"value"`
}

// PitchValue is the wrapped MIDI pitch scalar used on the wire.
type PitchValue struct {
	Value uint8 `json:"value"`
}

// BPMValue is the wrapped tempo scalar used on the wire.
type BPMValue struct {
	Value float64 `json:"value"`
}

// Note is one sounding event inside a voice.
type Note struct {
	ID            string     `json:"id"`
	StartTick     TickValue  `json:"start_tick"`
	DurationTicks int64      `json:"duration_ticks"`
	Pitch         PitchValue `json:"pitch"`
}

// EndTick returns the first tick at which the note no longer sounds.
func (n Note) EndTick() int64 {
	return n.StartTick.Value + n.DurationTicks
}

// TempoEvent sets the tempo from its tick onward.
type TempoEvent struct {
	Tick TickValue `json:"tick"`
	BPM  BPMValue  `json:"bpm"`
}

// TimeSignatureEvent sets the meter from its tick onward.
type TimeSignatureEvent struct {
	Tick        TickValue `json:"tick"`
	Numerator   int       `json:"numerator"`
	Denominator int       `json:"denominator"`
}

// StructuralEvent is one entry of the score-global event list. Exactly one
// variant field is set; the JSON key names the variant.
type StructuralEvent struct {
	Tempo         *TempoEvent         `json:"Tempo,omitempty"`
	TimeSignature *TimeSignatureEvent `json:"TimeSignature,omitempty"`
}

// ClefEvent sets the clef of a staff from its tick onward.
type ClefEvent struct {
	Tick TickValue `json:"tick"`
	Clef string    `json:"clef"`
}

// KeySignatureEvent sets the key of a staff from its tick onward.
type KeySignatureEvent struct {
	Tick   TickValue `json:"tick"`
	Fifths int       `json:"fifths"`
}

// StaffEvent is one entry of a staff's structural event list.
type StaffEvent struct {
	Clef         *ClefEvent         `json:"Clef,omitempty"`
	KeySignature *KeySignatureEvent `json:"KeySignature,omitempty"`
}

// Voice holds an ordered run of notes on one staff.
type Voice struct {
	ID    string `json:"id"`
	Notes []Note `json:"interval_events"`
}

// Staff is one staff of an instrument.
type Staff struct {
	ID     string       `json:"id"`
	Events []StaffEvent `json:"staff_structural_events"`
	Voices []Voice      `json:"voices"`
}

// Instrument groups the staves of one part.
type Instrument struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"instrument_type"`
	Staves []Staff `json:"staves"`
}

// Score is the document root.
type Score struct {
	ID          string            `json:"id"`
	Events      []StructuralEvent `json:"global_structural_events"`
	Instruments []Instrument      `json:"instruments"`
}

// TempoChange is one segment boundary of the resolved tempo map.
type TempoChange struct {
	Tick int64
	BPM  float64
}

// Flatten projects every note of every voice into the span form the
// highlight index consumes, in document order.
func (s *Score) Flatten() []highlight.NoteSpan {
	spans := make([]highlight.NoteSpan, 0, s.NoteCount())

	for i := range s.Instruments {
		for j := range s.Instruments[i].Staves {
			for k := range s.Instruments[i].Staves[j].Voices {
				for _, n := range s.Instruments[i].Staves[j].Voices[k].Notes {
					spans = append(spans, highlight.NoteSpan{
						ID:            n.ID,
						StartTick:     n.StartTick.Value,
						DurationTicks: n.DurationTicks,
					})
				}
			}
		}
	}

	return spans
}

// Notes returns every note of every voice in document order.
func (s *Score) Notes() []Note {
	notes := make([]Note, 0, s.NoteCount())

	for i := range s.Instruments {
		for j := range s.Instruments[i].Staves {
			for k := range s.Instruments[i].Staves[j].Voices {
				notes = append(notes, s.Instruments[i].Staves[j].Voices[k].Notes...)
			}
		}
	}

	return notes
}

// NoteCount returns the total number of notes across all voices.
func (s *Score) NoteCount() int {
	count := 0

	for i := range s.Instruments {
		for j := range s.Instruments[i].Staves {
			for k := range s.Instruments[i].Staves[j].Voices {
				count += len(s.Instruments[i].Staves[j].Voices[k].Notes)
			}
		}
	}

	return count
}

// EndTick returns the largest note end tick in the score, 0 when empty.
func (s *Score) EndTick() int64 {
	var end int64

	for i := range s.Instruments {
		for j := range s.Instruments[i].Staves {
			for k := range s.Instruments[i].Staves[j].Voices {
				for _, n := range s.Instruments[i].Staves[j].Voices[k].Notes {
					if t := n.EndTick(); t > end {
						end = t
					}
				}
			}
		}
	}

	return end
}

// TempoMap resolves the global tempo events into a sorted change list that
// always starts at tick 0. When two events land on the same tick, the one
// later in document order wins. A score without tempo events yields the
// single default entry {0, 120}.
func (s *Score) TempoMap() []TempoChange {
	changes := make([]TempoChange, 0, len(s.Events)+1)

	for _, ev := range s.Events {
		if ev.Tempo == nil {
			continue
		}

		changes = append(changes, TempoChange{Tick: ev.Tempo.Tick.Value, BPM: ev.Tempo.BPM.Value})
	}

	slices.SortStableFunc(changes, func(a, b TempoChange) int {
		return cmp.Compare(a.Tick, b.Tick)
	})

	// Collapse same-tick duplicates, keeping the last occurrence.
	deduped := changes[:0]

	for _, c := range changes {
		if n := len(deduped); n > 0 && deduped[n-1].Tick == c.Tick {
			deduped[n-1] = c

			continue
		}

		deduped = append(deduped, c)
	}

	if len(deduped) == 0 || deduped[0].Tick != 0 {
		deduped = append([]TempoChange{{Tick: 0, BPM: DefaultBPM}}, deduped...)
	}

	return deduped
}
