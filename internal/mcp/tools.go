package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aylabs/musicore-playback/pkg/units"
)

// Tool name constants.
const (
	ToolNameScoreInfo   = "score_info"
	ToolNameActiveNotes = "active_notes"
	ToolNameSimulate    = "playback_simulate"
)

// Input limits. The server is long-lived and answers one agent; a single
// oversized request must not pin it.
const (
	// MaxScoreFileBytes is the maximum allowed score file size.
	MaxScoreFileBytes = 16 * units.MiB

	// MaxSimulateFPS is the maximum frame rate for playback_simulate.
	MaxSimulateFPS = 1000

	// MaxSimulateStressMs is the maximum synthetic frame load in
	// milliseconds. Frame load is slept for, even in virtual runs.
	MaxSimulateStressMs = 20.0

	// MaxSimulateFrames is the maximum frame count for one simulation.
	MaxSimulateFrames = 200_000
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyScorePath indicates the score_path parameter is empty.
	ErrEmptyScorePath = errors.New("score_path parameter is required and must not be empty")
	// ErrScorePathNotAbsolute indicates the score_path is not an absolute path.
	ErrScorePathNotAbsolute = errors.New("score_path must be an absolute path")
	// ErrScoreNotFound indicates the score file does not exist.
	ErrScoreNotFound = errors.New("score file does not exist")
	// ErrScoreIsDirectory indicates the score path points at a directory.
	ErrScoreIsDirectory = errors.New("score_path must be a file")
	// ErrScoreTooLarge indicates the score file exceeds the size limit.
	ErrScoreTooLarge = errors.New("score file exceeds maximum size")
	// ErrNegativeTick indicates a negative tick parameter.
	ErrNegativeTick = errors.New("tick must be non-negative")
	// ErrInvalidFPS indicates an out-of-range fps parameter.
	ErrInvalidFPS = errors.New("fps must be between 0 and 1000")
	// ErrNegativeBudget indicates a negative budget_ms parameter.
	ErrNegativeBudget = errors.New("budget_ms must be non-negative")
	// ErrNegativeThreshold indicates a negative threshold parameter.
	ErrNegativeThreshold = errors.New("threshold must be non-negative")
	// ErrInvalidStress indicates an out-of-range stress_ms parameter.
	ErrInvalidStress = errors.New("stress_ms must be between 0 and 20")
	// ErrScoreTooLong indicates the simulation would exceed the frame cap.
	ErrScoreTooLong = errors.New("score too long to simulate at this frame rate")
)

// Input types (auto-generate JSON schemas via struct tags).

// ScoreInfoInput is the input schema for the score_info tool.
type ScoreInfoInput struct {
	ScorePath string `json:"score_path" jsonschema:"absolute path to a score file (.json or .mid)"`
}

// ActiveNotesInput is the input schema for the active_notes tool.
type ActiveNotesInput struct {
	ScorePath string `json:"score_path" jsonschema:"absolute path to a score file (.json or .mid)"`
	Tick      int64  `json:"tick"       jsonschema:"timeline position in ticks (960 per quarter note)"`
}

// SimulateInput is the input schema for the playback_simulate tool.
type SimulateInput struct {
	ScorePath string  `json:"score_path"          jsonschema:"absolute path to a score file (.json or .mid)"`
	FPS       int     `json:"fps,omitempty"       jsonschema:"frame rate (default 60, max 1000)"`
	BudgetMs  float64 `json:"budget_ms,omitempty" jsonschema:"per-frame budget in milliseconds (default 8)"`
	Threshold int     `json:"threshold,omitempty" jsonschema:"consecutive over-budget frames before degradation (default 5)"`
	StressMs  float64 `json:"stress_ms,omitempty" jsonschema:"synthetic per-frame load in milliseconds (max 20)"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateScorePath checks common score path constraints. The path must
// be absolute because the MCP client's working directory is not ours.
func validateScorePath(path string) error {
	if path == "" {
		return ErrEmptyScorePath
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", ErrScorePathNotAbsolute, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrScoreNotFound, path)
		}

		return fmt.Errorf("stat score: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrScoreIsDirectory, path)
	}

	if info.Size() > MaxScoreFileBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrScoreTooLarge, info.Size(), MaxScoreFileBytes)
	}

	return nil
}
