package score

import (
	"errors"
	"fmt"
)

// Sentinel errors for score validation.
var (
	// ErrEmptyNoteID indicates a note without an id.
	ErrEmptyNoteID = errors.New("note id must not be empty")
	// ErrNegativeStartTick indicates a note starting before tick 0.
	ErrNegativeStartTick = errors.New("note start_tick must be non-negative")
	// ErrNegativeDuration indicates a note with a negative length.
	ErrNegativeDuration = errors.New("note duration_ticks must be non-negative")
	// ErrPitchRange indicates a pitch outside the MIDI range.
	ErrPitchRange = errors.New("note pitch must be between 0 and 127")
	// ErrBPMRange indicates a tempo outside the playable range.
	ErrBPMRange = errors.New("tempo bpm must be between 20 and 400")
	// ErrNegativeEventTick indicates a structural event before tick 0.
	ErrNegativeEventTick = errors.New("event tick must be non-negative")
	// ErrInvalidTimeSignature indicates a non-positive meter component.
	ErrInvalidTimeSignature = errors.New("time signature numerator and denominator must be positive")
)

// Validate checks the document invariants and returns the first violation,
// wrapped with enough context to locate it. Zero-duration notes are valid;
// they exist in the model and simply never sound.
func (s *Score) Validate() error {
	err := s.validateEvents()
	if err != nil {
		return err
	}

	return s.validateNotes()
}

func (s *Score) validateEvents() error {
	for i, ev := range s.Events {
		if ev.Tempo != nil {
			if ev.Tempo.Tick.Value < 0 {
				return fmt.Errorf("global event %d: %w", i, ErrNegativeEventTick)
			}

			if ev.Tempo.BPM.Value < MinBPM || ev.Tempo.BPM.Value > MaxBPM {
				return fmt.Errorf("global event %d: %w", i, ErrBPMRange)
			}
		}

		if ev.TimeSignature != nil {
			if ev.TimeSignature.Tick.Value < 0 {
				return fmt.Errorf("global event %d: %w", i, ErrNegativeEventTick)
			}

			if ev.TimeSignature.Numerator <= 0 || ev.TimeSignature.Denominator <= 0 {
				return fmt.Errorf("global event %d: %w", i, ErrInvalidTimeSignature)
			}
		}
	}

	return nil
}

func (s *Score) validateNotes() error {
	for i := range s.Instruments {
		for j := range s.Instruments[i].Staves {
			for k := range s.Instruments[i].Staves[j].Voices {
				for _, n := range s.Instruments[i].Staves[j].Voices[k].Notes {
					err := validateNote(n)
					if err != nil {
						return fmt.Errorf("instrument %q staff %q: %w",
							s.Instruments[i].ID, s.Instruments[i].Staves[j].ID, err)
					}
				}
			}
		}
	}

	return nil
}

func validateNote(n Note) error {
	if n.ID == "" {
		return ErrEmptyNoteID
	}

	if n.StartTick.Value < 0 {
		return fmt.Errorf("note %q: %w", n.ID, ErrNegativeStartTick)
	}

	if n.DurationTicks < 0 {
		return fmt.Errorf("note %q: %w", n.ID, ErrNegativeDuration)
	}

	if n.Pitch.Value > MaxPitch {
		return fmt.Errorf("note %q: %w", n.ID, ErrPitchRange)
	}

	return nil
}
