// Package main provides the entry point for the musicore-playback CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/cmd/musicore-playback/commands"
	"github.com/aylabs/musicore-playback/pkg/version"
)

// exitCodeValidationFailure distinguishes an invalid score from an
// operational error, so CI pipelines can branch on the result.
const exitCodeValidationFailure = 2

var (
	configPath string
	verbose    bool
	quiet      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "musicore-playback",
		Short: "Musicore playback highlight engine",
		Long: `Musicore playback highlight engine.

Drives note-highlight queries over a score at frame rate, with budget
monitoring and graceful degradation under load.

Commands:
  simulate  Play a score and report highlight frame statistics
  query     List the notes active at a tick position
  bench     Benchmark interval index build and query throughput
  validate  Validate a score file without playing it
  fixture   Generate the dense stress-test score
  render    Render a recorded trace as an HTML report
  trace     Inspect and compare recorded playback traces
  config    Manage musicore-playback configuration
  mcp       Start MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .musicore-playback.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	// Add commands.
	rootCmd.AddCommand(commands.NewSimulateCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewBenchCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewFixtureCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewTraceCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if errors.Is(err, commands.ErrScoreInvalid) || errors.Is(err, commands.ErrTracesDiverge) {
			os.Exit(exitCodeValidationFailure)
		}

		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "musicore-playback %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
