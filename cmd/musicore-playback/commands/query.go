package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/playback"
	"github.com/aylabs/musicore-playback/internal/score"
	"github.com/aylabs/musicore-playback/pkg/highlight"
)

// ErrNegativeTick rejects query positions before the start of the score.
var ErrNegativeTick = errors.New("tick must be non-negative")

// QueryCommand answers a single point-in-time question: which notes sound
// at this tick.
type QueryCommand struct {
	tick    int64
	jsonOut bool
}

// queryResult is the --json output shape.
type queryResult struct {
	Tick    int64    `json:"tick"`
	TimeSec float64  `json:"time_sec"`
	Count   int      `json:"count"`
	NoteIDs []string `json:"note_ids"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	c := &QueryCommand{}

	cmd := &cobra.Command{
		Use:   "query <score>",
		Short: "List the notes active at a tick position",
		Long: `List the notes active at a tick position.

A note is active on [start, start+duration): it sounds at its start tick
and stops sounding exactly at its end tick. Zero-duration notes are
never active.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	cmd.Flags().Int64Var(&c.tick, "tick", 0, "tick position to query")
	cmd.Flags().BoolVar(&c.jsonOut, "json", false, "emit JSON instead of text")

	return cmd
}

func (c *QueryCommand) run(cmd *cobra.Command, args []string) error {
	if c.tick < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTick, c.tick)
	}

	sc, err := score.Load(args[0])
	if err != nil {
		return fmt.Errorf("load score: %w", err)
	}

	ix := highlight.NewIndex()
	ix.Build(sc.Flatten())

	// The index returns ids in scan order; sort for stable output.
	ids := ix.Query(c.tick)
	slices.Sort(ids)

	clock := playback.NewClockForScore(sc)
	out := cmd.OutOrStdout()

	if c.jsonOut {
		res := queryResult{
			Tick:    c.tick,
			TimeSec: clock.TimeAt(c.tick).Seconds(),
			Count:   len(ids),
			NoteIDs: ids,
		}

		data, marshalErr := json.MarshalIndent(res, "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("marshal result: %w", marshalErr)
		}

		fmt.Fprintln(out, string(data))

		return nil
	}

	color.New(color.FgCyan).Fprintf(out, "%d notes active at tick %d (%.3fs)\n",
		len(ids), c.tick, clock.TimeAt(c.tick).Seconds())

	if persistentBool(cmd, "verbose") {
		details := noteDetails(sc)

		for _, id := range ids {
			n := details[id]
			fmt.Fprintf(out, "  %s start=%d dur=%d pitch=%d\n",
				id, n.StartTick.Value, n.DurationTicks, n.Pitch.Value)
		}

		return nil
	}

	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", id)
	}

	return nil
}

// noteDetails indexes the score's notes by id for detail lines.
func noteDetails(sc *score.Score) map[string]score.Note {
	details := make(map[string]score.Note, sc.NoteCount())

	for _, n := range sc.Notes() {
		details[n.ID] = n
	}

	return details
}
