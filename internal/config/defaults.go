package config

// Playback defaults.
const (
	DefaultPlaybackBudgetMs             = 8.0
	DefaultPlaybackDegradationThreshold = 5
	DefaultPlaybackFPS                  = 60
	DefaultPlaybackRealtime             = false
	DefaultPlaybackStressMs             = 0.0
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Observability defaults. Empty endpoint and address leave OTLP export
// and the diagnostics server disabled.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultMetricsAddr  = ""
)

// Trace recording defaults. Empty dir writes traces next to the score.
const (
	DefaultTraceDir      = ""
	DefaultTraceCompress = false
)
