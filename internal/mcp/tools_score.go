package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aylabs/musicore-playback/internal/playback"
	"github.com/aylabs/musicore-playback/internal/score"
	"github.com/aylabs/musicore-playback/pkg/highlight"
)

// ScoreInfo is the payload returned by the score_info tool.
type ScoreInfo struct {
	ID           string           `json:"id"`
	NoteCount    int              `json:"note_count"`
	EndTick      int64            `json:"end_tick"`
	DurationSec  float64          `json:"duration_sec"`
	TempoChanges int              `json:"tempo_changes"`
	Instruments  []InstrumentInfo `json:"instruments"`
}

// InstrumentInfo summarizes one instrument of a score.
type InstrumentInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Staves int    `json:"staves"`
}

// ActiveNotes is the payload returned by the active_notes tool.
type ActiveNotes struct {
	Tick    int64    `json:"tick"`
	Count   int      `json:"count"`
	NoteIDs []string `json:"note_ids"`
}

// handleScoreInfo processes score_info tool calls.
func (s *Server) handleScoreInfo(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ScoreInfoInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateScorePath(input.ScorePath)
	if err != nil {
		return errorResult(err)
	}

	sc, err := s.cache.Load(input.ScorePath)
	if err != nil {
		return errorResult(err)
	}

	endTick := sc.EndTick()
	clock := playback.NewClockForScore(sc)

	instruments := make([]InstrumentInfo, 0, len(sc.Instruments))
	for i := range sc.Instruments {
		instruments = append(instruments, InstrumentInfo{
			ID:     sc.Instruments[i].ID,
			Name:   sc.Instruments[i].Name,
			Type:   sc.Instruments[i].Type,
			Staves: len(sc.Instruments[i].Staves),
		})
	}

	return jsonResult(ScoreInfo{
		ID:           sc.ID,
		NoteCount:    sc.NoteCount(),
		EndTick:      endTick,
		DurationSec:  clock.TimeAt(endTick).Seconds(),
		TempoChanges: len(sc.TempoMap()),
		Instruments:  instruments,
	})
}

// handleActiveNotes processes active_notes tool calls.
func (s *Server) handleActiveNotes(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ActiveNotesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateScorePath(input.ScorePath)
	if err != nil {
		return errorResult(err)
	}

	if input.Tick < 0 {
		return errorResult(ErrNegativeTick)
	}

	sc, err := s.cache.Load(input.ScorePath)
	if err != nil {
		return errorResult(err)
	}

	ids := s.indexFor(sc).Query(input.Tick)

	return jsonResult(ActiveNotes{
		Tick:    input.Tick,
		Count:   len(ids),
		NoteIDs: ids,
	})
}

// indexFor returns the interval index for sc, rebuilding only when the
// cache handed back a different score pointer than last time.
func (s *Server) indexFor(sc *score.Score) *highlight.Index {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if s.indexScore == sc && s.index != nil {
		return s.index
	}

	ix := highlight.NewIndex()
	ix.Build(sc.Flatten())

	s.indexScore = sc
	s.index = ix

	return ix
}
