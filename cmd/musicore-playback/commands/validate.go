package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/score"
)

// ErrScoreInvalid marks a validation failure. The entry point maps it to
// a distinct exit code so CI pipelines can tell "bad score" from "broken
// run".
var ErrScoreInvalid = errors.New("score is invalid")

// ValidateCommand checks a score file against the schema and the semantic
// rules without playing it.
type ValidateCommand struct {
	noColor bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	c := &ValidateCommand{}

	cmd := &cobra.Command{
		Use:   "validate <score>",
		Short: "Validate a score file without playing it",
		Long: `Validate a score file without playing it.

JSON scores are checked against the embedded schema first, then against
the semantic rules (negative ticks, negative durations, malformed
events). MIDI files skip the schema and validate after conversion.

Exits 2 when the score is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	cmd.Flags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	return cmd
}

func (c *ValidateCommand) run(cmd *cobra.Command, args []string) error {
	if c.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	path := args[0]
	out := cmd.OutOrStdout()

	sc, problems, err := inspectScore(path)
	if err != nil {
		return err
	}

	if len(problems) > 0 {
		color.New(color.FgRed).Fprintf(out, "%s: invalid (%d problems)\n", path, len(problems))

		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}

		return fmt.Errorf("%w: %s", ErrScoreInvalid, path)
	}

	color.New(color.FgGreen).Fprintf(out, "%s: valid\n", path)
	fmt.Fprintf(out, "  id: %s\n", sc.ID)
	fmt.Fprintf(out, "  notes: %d\n", sc.NoteCount())
	fmt.Fprintf(out, "  end tick: %d\n", sc.EndTick())

	return nil
}

// inspectScore separates operational failures (unreadable file) from
// validation findings. A non-nil error aborts the command; findings are
// reported and mapped to the validation exit code.
func inspectScore(path string) (*score.Score, []string, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat score: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		sc, loadErr := score.LoadMIDI(path)
		if loadErr != nil {
			return nil, []string{loadErr.Error()}, nil
		}

		return sc, nil, nil
	case ".json":
	default:
		return nil, nil, fmt.Errorf("%w: %q", score.ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read score: %w", err)
	}

	result, err := score.SchemaResult(data)
	if err != nil {
		// Unparseable JSON is a finding, not an operational failure.
		return nil, []string{err.Error()}, nil
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
		}

		return nil, problems, nil
	}

	sc, err := score.DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return nil, []string{err.Error()}, nil
	}

	return sc, nil, nil
}
