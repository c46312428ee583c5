package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/config"
)

// defaultConfigFile is where config init writes without -o.
const defaultConfigFile = ".musicore-playback.yaml"

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage musicore-playback configuration",
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			err := config.WriteDefault(output)
			if err != nil {
				return err
			}

			if !quietOn(cobraCmd) {
				color.New(color.FgGreen).Fprintf(cobraCmd.OutOrStdout(), "wrote %s\n", output)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultConfigFile, "output file")

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration.

The output folds together defaults, the config file, and MUSICORE_*
environment overrides, in that order.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cobraCmd)
			if err != nil {
				return err
			}

			rendered, err := config.RenderYAML(cfg)
			if err != nil {
				return err
			}

			fmt.Fprint(cobraCmd.OutOrStdout(), rendered)

			return nil
		},
	}
}
