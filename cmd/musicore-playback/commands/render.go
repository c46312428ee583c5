package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/report"
	"github.com/aylabs/musicore-playback/internal/trace"
)

const (
	renderCmdUse   = "render <trace>"
	renderCmdShort = "Render a recorded trace as an HTML report"

	renderOutputFlag = "output"
)

// RenderCommand turns a trace recording into a self-contained HTML page
// with frame-duration and active-note charts.
type RenderCommand struct {
	output string
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	c := &RenderCommand{}

	cmd := &cobra.Command{
		Use:   renderCmdUse,
		Short: renderCmdShort,
		Long: `Render a recorded trace as an HTML report.

The report charts per-frame durations against the budget line and the
active-note count over the run. Both .json and .json.lz4 recordings
load directly.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	cmd.Flags().StringVarP(&c.output, renderOutputFlag, "o", "", "output HTML file (default: trace path with .html)")

	return cmd
}

func (c *RenderCommand) run(cmd *cobra.Command, args []string) error {
	tr, err := trace.Load(args[0])
	if err != nil {
		return err
	}

	out := c.output
	if out == "" {
		out = htmlPathFor(args[0])
	}

	err = report.RenderFile(out, tr)
	if err != nil {
		return err
	}

	if !quietOn(cmd) {
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		fmt.Fprintf(cmd.OutOrStdout(), "  score: %s\n", tr.Score)
		fmt.Fprintf(cmd.OutOrStdout(), "  frames: %d\n", len(tr.Frames))
	}

	return nil
}

// htmlPathFor derives the report path from the trace path, stripping the
// recording extensions.
func htmlPathFor(tracePath string) string {
	out := strings.TrimSuffix(tracePath, ".lz4")
	out = strings.TrimSuffix(out, ".json")

	return out + ".html"
}
