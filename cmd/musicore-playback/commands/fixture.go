package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/score"
)

// defaultFixtureOutput is where the fixture command writes without -o.
const defaultFixtureOutput = "dense.json"

// FixtureCommand generates the dense stress-test score: two staves of
// continuous eighth notes, the worst sustained highlight churn the editor
// produces.
type FixtureCommand struct {
	output   string
	measures int
}

// NewFixtureCommand creates the fixture command.
func NewFixtureCommand() *cobra.Command {
	c := &FixtureCommand{}

	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Generate the dense stress-test score",
		Long: `Generate the dense stress-test score.

The fixture holds one piano with two staves playing continuous eighth
notes in 4/4, sixteen note onsets per measure. It is the standard input
for simulate and bench runs.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	cmd.Flags().StringVarP(&c.output, "output", "o", defaultFixtureOutput, "output file")
	cmd.Flags().IntVar(&c.measures, "measures", score.DefaultDenseMeasures, "length in measures (non-positive uses the default)")

	return cmd
}

func (c *FixtureCommand) run(cmd *cobra.Command, _ []string) error {
	sc := score.GenerateDense(c.measures)

	err := score.SaveJSON(c.output, sc)
	if err != nil {
		return err
	}

	if !quietOn(cmd) {
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s\n", c.output)
		fmt.Fprintf(cmd.OutOrStdout(), "  notes: %d\n", sc.NoteCount())
		fmt.Fprintf(cmd.OutOrStdout(), "  end tick: %d\n", sc.EndTick())
	}

	return nil
}
