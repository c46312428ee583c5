package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/trace"
)

// ErrTracesDiverge marks a semantic difference between two recordings.
// The entry point maps it to the validation exit code.
var ErrTracesDiverge = errors.New("traces diverge")

// NewTraceCommand creates the trace command group.
func NewTraceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect and compare recorded playback traces",
	}

	cmd.AddCommand(newTraceDiffCommand())

	return cmd
}

func newTraceDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Compare two trace recordings semantically",
		Long: `Compare two trace recordings semantically.

Frames compare on tick, skip decision, active count, and patch
contents. Measured durations are excluded, so recordings of the same
run on different machines compare equal. Exits 2 when the traces
diverge.`,
		Args: cobra.ExactArgs(2),
		RunE: runTraceDiff,
	}
}

func runTraceDiff(cmd *cobra.Command, args []string) error {
	left, err := trace.Load(args[0])
	if err != nil {
		return err
	}

	right, err := trace.Load(args[1])
	if err != nil {
		return err
	}

	div := trace.Compare(left, right)
	out := cmd.OutOrStdout()

	if div.Equal {
		if !quietOn(cmd) {
			color.New(color.FgGreen).Fprintf(out, "traces match (%d frames)\n", div.EqualLines)
		}

		return nil
	}

	color.New(color.FgRed).Fprintf(out, "traces diverge at frame %d\n", div.FirstSeq)
	fmt.Fprintf(out, "  equal frames:    %d\n", div.EqualLines)
	fmt.Fprintf(out, "  only in %s: %d\n", args[0], div.DeletedLines)
	fmt.Fprintf(out, "  only in %s: %d\n", args[1], div.InsertedLines)

	if div.FirstDeleted != "" {
		fmt.Fprintf(out, "  - %s\n", div.FirstDeleted)
	}

	if div.FirstInserted != "" {
		fmt.Fprintf(out, "  + %s\n", div.FirstInserted)
	}

	return fmt.Errorf("%w: %s vs %s", ErrTracesDiverge, args[0], args[1])
}
