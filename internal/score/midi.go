package score

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrUnsupportedTimeFormat indicates a MIDI file using SMPTE timecode
// instead of metric ticks; the score timeline has no mapping for it.
var ErrUnsupportedTimeFormat = errors.New("midi file does not use metric ticks")

// LoadMIDI reads a Standard MIDI File and converts it into a score.
func LoadMIDI(path string) (*Score, error) {
	doc, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return FromSMF(doc, name)
}

// pendingNote is a sounding note awaiting its note-off.
type pendingNote struct {
	startTick int64
	pitch     uint8
}

// trackState accumulates one track's conversion.
type trackState struct {
	notes   []Note
	pending map[uint16][]pendingNote
	name    string
	counter int
}

// FromSMF converts a parsed MIDI document into a score. Each track with
// notes becomes one instrument with a single staff and voice; meta tempo
// and meter events from every track join the global event list. Note-on and
// note-off pairs match first-in-first-out per channel and key, note-ons
// with velocity zero count as note-offs, and any note still sounding when
// its track ends is closed at the track's final tick. Tick positions are
// rescaled from the file's resolution to the score's 960 ticks per
// quarter, and tempi outside the playable range are clamped into it.
func FromSMF(doc *smf.SMF, id string) (*Score, error) {
	metric, ok := doc.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrUnsupportedTimeFormat
	}

	resolution := int64(metric.Resolution())

	s := &Score{ID: id}

	for trackIdx, track := range doc.Tracks {
		state := trackState{pending: make(map[uint16][]pendingNote)}

		var abs int64

		for _, ev := range track {
			abs += int64(ev.Delta)

			tick := rescaleTick(abs, resolution)

			var (
				channel, key, velocity uint8
				numerator, denominator uint8
				bpm                    float64
				trackName              string
			)

			switch {
			case ev.Message.GetNoteStart(&channel, &key, &velocity):
				state.noteOn(channel, key, tick)
			case ev.Message.GetNoteEnd(&channel, &key):
				state.noteOff(trackIdx, channel, key, tick)
			case ev.Message.GetMetaTempo(&bpm):
				s.Events = append(s.Events, StructuralEvent{Tempo: &TempoEvent{
					Tick: TickValue{Value: tick},
					BPM:  BPMValue{Value: clampBPM(bpm)},
				}})
			case ev.Message.GetMetaMeter(&numerator, &denominator):
				s.Events = append(s.Events, StructuralEvent{TimeSignature: &TimeSignatureEvent{
					Tick:        TickValue{Value: tick},
					Numerator:   int(numerator),
					Denominator: int(denominator),
				}})
			case ev.Message.GetMetaTrackName(&trackName):
				state.name = trackName
			}
		}

		// Close orphaned note-ons at the track's final tick.
		endTick := rescaleTick(abs, resolution)

		for _, stack := range state.pending {
			for _, p := range stack {
				state.emit(trackIdx, p, endTick)
			}
		}

		if len(state.notes) == 0 {
			continue
		}

		if state.name == "" {
			state.name = fmt.Sprintf("Track %d", trackIdx+1)
		}

		trackID := fmt.Sprintf("%s-track-%d", id, trackIdx)

		s.Instruments = append(s.Instruments, Instrument{
			ID:   trackID,
			Name: state.name,
			Type: "midi",
			Staves: []Staff{{
				ID: trackID + "-staff",
				Voices: []Voice{{
					ID:    trackID + "-voice",
					Notes: state.notes,
				}},
			}},
		})
	}

	err := s.Validate()
	if err != nil {
		return nil, fmt.Errorf("converted midi score: %w", err)
	}

	return s, nil
}

// noteOn records a sounding note, stacked FIFO per channel and key so
// overlapping equal pitches pair up in onset order.
func (t *trackState) noteOn(channel, key uint8, tick int64) {
	slot := pendingKey(channel, key)
	t.pending[slot] = append(t.pending[slot], pendingNote{startTick: tick, pitch: key})
}

// noteOff closes the oldest sounding note for the channel and key. A
// note-off without a matching note-on is dropped.
func (t *trackState) noteOff(trackIdx int, channel, key uint8, tick int64) {
	slot := pendingKey(channel, key)

	stack := t.pending[slot]
	if len(stack) == 0 {
		return
	}

	t.emit(trackIdx, stack[0], tick)
	t.pending[slot] = stack[1:]
}

// emit appends the completed note. Note-offs at or before the onset yield
// zero-duration notes, which the model allows.
func (t *trackState) emit(trackIdx int, p pendingNote, endTick int64) {
	duration := endTick - p.startTick
	if duration < 0 {
		duration = 0
	}

	t.counter++

	t.notes = append(t.notes, Note{
		ID:            fmt.Sprintf("t%d-n%05d", trackIdx, t.counter),
		StartTick:     TickValue{Value: p.startTick},
		DurationTicks: duration,
		Pitch:         PitchValue{Value: p.pitch},
	})
}

// pendingKey packs channel and key into one map slot.
func pendingKey(channel, key uint8) uint16 {
	return uint16(channel)<<8 | uint16(key)
}

// rescaleTick converts a native-resolution tick to the score resolution.
func rescaleTick(tick, resolution int64) int64 {
	if resolution == TicksPerQuarter || resolution <= 0 {
		return tick
	}

	return tick * TicksPerQuarter / resolution
}

// clampBPM forces an imported tempo into the playable range.
func clampBPM(bpm float64) float64 {
	if bpm < MinBPM {
		return MinBPM
	}

	if bpm > MaxBPM {
		return MaxBPM
	}

	return bpm
}
