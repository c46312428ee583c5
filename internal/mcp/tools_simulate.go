package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aylabs/musicore-playback/internal/playback"
	"github.com/aylabs/musicore-playback/pkg/highlight"
)

// SimulateReport is the payload returned by the playback_simulate tool.
// The knob fields echo the effective values after defaulting.
type SimulateReport struct {
	ScoreID             string  `json:"score_id"`
	FPS                 int     `json:"fps"`
	BudgetMs            float64 `json:"budget_ms"`
	Threshold           int     `json:"threshold"`
	StressMs            float64 `json:"stress_ms,omitempty"`
	FramesProcessed     uint64  `json:"frames_processed"`
	FramesSkipped       uint64  `json:"frames_skipped"`
	PatchesApplied      uint64  `json:"patches_applied"`
	NotesAdded          uint64  `json:"notes_added"`
	NotesRemoved        uint64  `json:"notes_removed"`
	DegradedTransitions uint64  `json:"degraded_transitions"`
	EverDegraded        bool    `json:"ever_degraded"`
	WallMs              float64 `json:"wall_ms"`
}

// handleSimulate processes playback_simulate tool calls. Runs are always
// virtual: the loop advances one frame interval per iteration without
// sleeping, so simulated minutes cost wall milliseconds.
func (s *Server) handleSimulate(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input SimulateInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateSimulateInput(input)
	if err != nil {
		return errorResult(err)
	}

	sc, err := s.cache.Load(input.ScorePath)
	if err != nil {
		return errorResult(err)
	}

	fps := input.FPS
	if fps <= 0 {
		fps = playback.DefaultFPS
	}

	budget := time.Duration(input.BudgetMs * float64(time.Millisecond))
	if budget <= 0 {
		budget = highlight.DefaultFrameBudget
	}

	threshold := input.Threshold
	if threshold <= 0 {
		threshold = highlight.DefaultDegradationThreshold
	}

	clock := playback.NewClockForScore(sc)
	endTick := sc.EndTick()

	frames := plannedFrames(clock, endTick, fps)
	if frames > MaxSimulateFrames {
		return errorResult(fmt.Errorf("%w: %d frames (max %d)", ErrScoreTooLong, frames, MaxSimulateFrames))
	}

	session := highlight.NewSession(nil, budget, threshold)
	session.LoadSpans(sc.Flatten())

	loop := playback.NewLoop(session, clock, endTick, playback.Config{
		FPS:       fps,
		FrameLoad: time.Duration(input.StressMs * float64(time.Millisecond)),
	})

	start := time.Now()

	stats, err := loop.Run(ctx)
	if err != nil {
		return errorResult(fmt.Errorf("simulate: %w", err))
	}

	return jsonResult(SimulateReport{
		ScoreID:             sc.ID,
		FPS:                 fps,
		BudgetMs:            float64(budget) / float64(time.Millisecond),
		Threshold:           threshold,
		StressMs:            input.StressMs,
		FramesProcessed:     stats.FramesProcessed,
		FramesSkipped:       stats.FramesSkipped,
		PatchesApplied:      stats.PatchesApplied,
		NotesAdded:          stats.NotesAdded,
		NotesRemoved:        stats.NotesRemoved,
		DegradedTransitions: stats.DegradedTransitions,
		EverDegraded:        stats.DegradedTransitions > 0,
		WallMs:              float64(time.Since(start)) / float64(time.Millisecond),
	})
}

func validateSimulateInput(input SimulateInput) error {
	err := validateScorePath(input.ScorePath)
	if err != nil {
		return err
	}

	if input.FPS < 0 || input.FPS > MaxSimulateFPS {
		return fmt.Errorf("%w: %d", ErrInvalidFPS, input.FPS)
	}

	if input.BudgetMs < 0 {
		return ErrNegativeBudget
	}

	if input.Threshold < 0 {
		return ErrNegativeThreshold
	}

	if input.StressMs < 0 || input.StressMs > MaxSimulateStressMs {
		return fmt.Errorf("%w: %g", ErrInvalidStress, input.StressMs)
	}

	return nil
}

// plannedFrames counts the loop iterations a virtual run would take.
func plannedFrames(clock *playback.Clock, endTick int64, fps int) int {
	interval := time.Second / time.Duration(fps)
	duration := clock.TimeAt(endTick)

	return int(duration/interval) + 1
}
