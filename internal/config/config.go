// Package config provides YAML-based configuration for musicore-playback.
package config

import (
	"errors"
	"log/slog"
	"strings"
)

// Config is the top-level configuration struct for musicore-playback.
// Field tags use mapstructure for viper unmarshalling and yaml for
// rendering the default config file.
type Config struct {
	Playback      PlaybackConfig      `mapstructure:"playback"      yaml:"playback"`
	Log           LogConfig           `mapstructure:"log"           yaml:"log"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
	Trace         TraceConfig         `mapstructure:"trace"         yaml:"trace"`
}

// PlaybackConfig holds playback engine knobs.
type PlaybackConfig struct {
	BudgetMs             float64 `mapstructure:"budget_ms"             yaml:"budget_ms"`
	DegradationThreshold int     `mapstructure:"degradation_threshold" yaml:"degradation_threshold"`
	FPS                  int     `mapstructure:"fps"                   yaml:"fps"`
	Realtime             bool    `mapstructure:"realtime"              yaml:"realtime"`
	StressMs             float64 `mapstructure:"stress_ms"             yaml:"stress_ms"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json"  yaml:"json"`
}

// ObservabilityConfig holds OTLP export and diagnostics server settings.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure" yaml:"otlp_insecure"`
	MetricsAddr  string `mapstructure:"metrics_addr"  yaml:"metrics_addr"`
}

// TraceConfig holds session trace recording settings.
type TraceConfig struct {
	Dir      string `mapstructure:"dir"      yaml:"dir"`
	Compress bool   `mapstructure:"compress" yaml:"compress"`
}

// Log level names accepted in log.level.
const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidBudget indicates the frame budget is negative.
	ErrInvalidBudget = errors.New("playback.budget_ms must be non-negative")
	// ErrInvalidThreshold indicates the degradation threshold is negative.
	ErrInvalidThreshold = errors.New("playback.degradation_threshold must be non-negative")
	// ErrInvalidFPS indicates the frame rate is negative.
	ErrInvalidFPS = errors.New("playback.fps must be non-negative")
	// ErrInvalidStress indicates the synthetic frame load is negative.
	ErrInvalidStress = errors.New("playback.stress_ms must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("log.level must be one of debug, info, warn, error")
)

// Validate checks Config invariants and returns the first error found.
// Zero values are valid; the playback engine falls back to its defaults.
func (c *Config) Validate() error {
	playbackErr := c.validatePlayback()
	if playbackErr != nil {
		return playbackErr
	}

	return c.validateLog()
}

func (c *Config) validatePlayback() error {
	if c.Playback.BudgetMs < 0 {
		return ErrInvalidBudget
	}

	if c.Playback.DegradationThreshold < 0 {
		return ErrInvalidThreshold
	}

	if c.Playback.FPS < 0 {
		return ErrInvalidFPS
	}

	if c.Playback.StressMs < 0 {
		return ErrInvalidStress
	}

	return nil
}

func (c *Config) validateLog() error {
	switch strings.ToLower(c.Log.Level) {
	case "", levelDebug, levelInfo, levelWarn, levelError:
		return nil
	default:
		return ErrInvalidLogLevel
	}
}

// SlogLevel maps the configured level name to its slog.Level.
// Unknown and empty names map to info; Validate rejects unknown names
// before they reach here.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case levelDebug:
		return slog.LevelDebug
	case levelWarn:
		return slog.LevelWarn
	case levelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns a Config populated with the default values.
func Default() Config {
	return Config{
		Playback: PlaybackConfig{
			BudgetMs:             DefaultPlaybackBudgetMs,
			DegradationThreshold: DefaultPlaybackDegradationThreshold,
			FPS:                  DefaultPlaybackFPS,
			Realtime:             DefaultPlaybackRealtime,
			StressMs:             DefaultPlaybackStressMs,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
			JSON:  DefaultLogJSON,
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: DefaultOTLPEndpoint,
			OTLPInsecure: DefaultOTLPInsecure,
			MetricsAddr:  DefaultMetricsAddr,
		},
		Trace: TraceConfig{
			Dir:      DefaultTraceDir,
			Compress: DefaultTraceCompress,
		},
	}
}
