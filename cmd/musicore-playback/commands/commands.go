// Package commands implements the subcommands of the musicore-playback CLI.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/config"
	"github.com/aylabs/musicore-playback/internal/observability"
	"github.com/aylabs/musicore-playback/pkg/version"
)

// loadConfig resolves the persistent --config flag and loads the YAML
// configuration. The flag lives on the root command; cmd.Flag searches
// parent persistent flags, so subcommands reach it without re-declaring.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := ""

	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}

	return config.LoadConfig(path)
}

// initCLIObservability builds providers for a CLI run from the loaded
// configuration. --verbose raises the log level to debug and enables
// hot-path spans.
func initCLIObservability(cmd *cobra.Command, cfg *config.Config) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = observability.ModeCLI
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.LogLevel = cfg.Log.SlogLevel()
	obsCfg.LogJSON = cfg.Log.JSON

	if persistentBool(cmd, "verbose") {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.TraceVerbose = true
	}

	if persistentBool(cmd, "quiet") {
		obsCfg.LogLevel = slog.LevelError
	}

	return observability.Init(obsCfg)
}

// persistentBool reads a boolean persistent flag defined on an ancestor
// command. Missing flags read as false, which keeps subcommands testable
// without a root command attached.
func persistentBool(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)

	return f != nil && f.Value.String() == "true"
}

// quietOn reports whether the persistent --quiet flag suppresses normal
// command output.
func quietOn(cmd *cobra.Command) bool {
	return persistentBool(cmd, "quiet")
}
