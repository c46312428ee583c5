package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/config"
	"github.com/aylabs/musicore-playback/internal/observability"
	"github.com/aylabs/musicore-playback/internal/playback"
	"github.com/aylabs/musicore-playback/internal/report"
	"github.com/aylabs/musicore-playback/internal/score"
	"github.com/aylabs/musicore-playback/internal/timing"
	"github.com/aylabs/musicore-playback/internal/trace"
	"github.com/aylabs/musicore-playback/pkg/highlight"
	"github.com/aylabs/musicore-playback/pkg/safeconv"
)

const (
	simulateCmdUse   = "simulate <score>"
	simulateCmdShort = "Play a score and report highlight frame statistics"

	flagFPS         = "fps"
	flagBudgetMs    = "budget-ms"
	flagThreshold   = "threshold"
	flagStressMs    = "stress-ms"
	flagRealtime    = "realtime"
	flagShowNotes   = "show-notes"
	flagTrace       = "trace"
	flagTraceOut    = "trace-out"
	flagPlot        = "plot"
	flagMetricsAddr = "metrics-addr"
)

// traceFileSuffix names trace recordings written next to the score.
const traceFileSuffix = ".trace.json"

const (
	// progressInterval paces the realtime status line.
	progressInterval = 250 * time.Millisecond

	// progressSmoothing is the EMA factor for the displayed frame cost.
	progressSmoothing = 0.1
)

// SimulateCommand runs a full playback over a score, with optional trace
// recording, HTML reporting, and live Prometheus metrics.
type SimulateCommand struct {
	fps         int
	budgetMs    float64
	threshold   int
	stressMs    float64
	realtime    bool
	showNotes   bool
	trace       bool
	traceOut    string
	plot        string
	metricsAddr string
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand() *cobra.Command {
	c := &SimulateCommand{}

	cmd := &cobra.Command{
		Use:   simulateCmdUse,
		Short: simulateCmdShort,
		Long: `Play a score from tick zero to its end at a fixed frame rate.

Each frame queries the notes active at the current tick, diffs them
against the previous frame, and applies the resulting highlight patch.
Frames that blow the per-frame budget too many times in a row degrade
the session to half rate until it recovers.

By default the run is virtual: elapsed time advances by exactly one
frame interval per frame, so a three-minute score simulates in
milliseconds. --realtime waits out each interval on the wall clock.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	cmd.Flags().IntVar(&c.fps, flagFPS, 0, "frame rate (default from config, 60)")
	cmd.Flags().Float64Var(&c.budgetMs, flagBudgetMs, 0, "per-frame budget in milliseconds (default from config, 8)")
	cmd.Flags().IntVar(&c.threshold, flagThreshold, 0, "consecutive over-budget frames before degradation (default from config, 5)")
	cmd.Flags().Float64Var(&c.stressMs, flagStressMs, 0, "artificial per-frame load in milliseconds")
	cmd.Flags().BoolVar(&c.realtime, flagRealtime, false, "pace frames on the wall clock instead of advancing virtually")
	cmd.Flags().BoolVar(&c.showNotes, flagShowNotes, false, "print every highlight change (additions green, removals red)")
	cmd.Flags().BoolVar(&c.trace, flagTrace, false, "record the run to a trace file next to the score")
	cmd.Flags().StringVar(&c.traceOut, flagTraceOut, "", "record the run to this trace file (implies --trace; .lz4 compresses)")
	cmd.Flags().StringVar(&c.plot, flagPlot, "", "write an HTML report of the run to this file")
	cmd.Flags().StringVar(&c.metricsAddr, flagMetricsAddr, "", "serve Prometheus metrics on this address during the run")

	return cmd
}

func (c *SimulateCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c.mergeFlags(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("validate flags: %w", err)
	}

	providers, err := initCLIObservability(cmd, cfg)
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	logger := providers.Logger

	sc, err := score.Load(args[0])
	if err != nil {
		return fmt.Errorf("load score: %w", err)
	}

	logger.Info("score loaded",
		"id", sc.ID,
		"notes", sc.NoteCount(),
		"end_tick", sc.EndTick(),
		"instruments", len(sc.Instruments))

	var renderer highlight.Renderer
	if c.showNotes {
		renderer = playback.NewConsoleRenderer(cmd.OutOrStdout())
	}

	budget := durationMs(cfg.Playback.BudgetMs)
	session := highlight.NewSession(renderer, budget, cfg.Playback.DegradationThreshold)
	session.LoadSpans(sc.Flatten())

	clock := playback.NewClockForScore(sc)
	fps := effectiveFPS(cfg.Playback.FPS)

	frameStats := timing.NewFrameStats(plannedFrameCount(clock, sc.EndTick(), fps))
	observers := []playback.FrameObserver{frameStatsObserver{stats: frameStats}}

	var progress *progressObserver

	if cfg.Playback.Realtime && !quietOn(cmd) {
		progress = newProgressObserver(cmd.OutOrStdout())
		observers = append(observers, progress)
	}

	var recorder *trace.Recorder

	tracePath := c.resolveTracePath(cfg, args[0], sc.ID)
	if tracePath != "" || c.plot != "" {
		recorder = trace.NewRecorder(sc.ID, session.Budget(), fps)
		observers = append(observers, recorder)
	}

	if cfg.Observability.MetricsAddr != "" {
		diag, diagErr := observability.NewDiagnosticsServer(cfg.Observability.MetricsAddr)
		if diagErr != nil {
			return fmt.Errorf("start diagnostics server: %w", diagErr)
		}

		defer func() {
			closeErr := diag.Close()
			if closeErr != nil {
				logger.Warn("diagnostics server close failed", "error", closeErr)
			}
		}()

		fm, fmErr := observability.NewFrameMetrics(diag.Meter())
		if fmErr != nil {
			return fmt.Errorf("frame metrics: %w", fmErr)
		}

		observers = append(observers, fm)

		logger.Info("diagnostics listening", "addr", diag.Addr())
	}

	loop := playback.NewLoop(session, clock, sc.EndTick(), playback.Config{
		FPS:       cfg.Playback.FPS,
		Realtime:  cfg.Playback.Realtime,
		FrameLoad: durationMs(cfg.Playback.StressMs),
	}, observers...)

	start := time.Now()

	stats, err := loop.Run(cmd.Context())

	if progress != nil {
		progress.finish()
	}

	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	wall := time.Since(start)

	logger.Info("playback finished",
		"frames", stats.FramesProcessed,
		"skipped", stats.FramesSkipped,
		"degraded_transitions", stats.DegradedTransitions,
		"wall_ms", wall.Milliseconds())

	if tracePath != "" {
		err = trace.Save(tracePath, recorder.Trace())
		if err != nil {
			return err
		}

		logger.Info("trace written", "path", tracePath)
	}

	if c.plot != "" {
		err = report.RenderFile(c.plot, recorder.Trace())
		if err != nil {
			return err
		}

		logger.Info("report written", "path", c.plot)
	}

	if !quietOn(cmd) {
		printRunSummary(cmd.OutOrStdout(), stats, frameStats.Summarize(), wall)
	}

	return nil
}

// mergeFlags overlays explicitly set flags onto the loaded configuration.
// Only flags the user changed win; everything else keeps the config value.
func (c *SimulateCommand) mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed(flagFPS) {
		cfg.Playback.FPS = c.fps
	}

	if flags.Changed(flagBudgetMs) {
		cfg.Playback.BudgetMs = c.budgetMs
	}

	if flags.Changed(flagThreshold) {
		cfg.Playback.DegradationThreshold = c.threshold
	}

	if flags.Changed(flagStressMs) {
		cfg.Playback.StressMs = c.stressMs
	}

	if flags.Changed(flagRealtime) {
		cfg.Playback.Realtime = c.realtime
	}

	if flags.Changed(flagMetricsAddr) {
		cfg.Observability.MetricsAddr = c.metricsAddr
	}
}

// resolveTracePath decides where to write the trace recording, or returns
// empty when no recording was requested. --trace-out wins; plain --trace
// derives a name from the score id in the configured trace directory,
// falling back to the score's own directory.
func (c *SimulateCommand) resolveTracePath(cfg *config.Config, scorePath, scoreID string) string {
	if c.traceOut != "" {
		return c.traceOut
	}

	if !c.trace {
		return ""
	}

	dir := cfg.Trace.Dir
	if dir == "" {
		dir = filepath.Dir(scorePath)
	}

	name := scoreID + traceFileSuffix
	if cfg.Trace.Compress {
		name += ".lz4"
	}

	return filepath.Join(dir, name)
}

func printRunSummary(w io.Writer, stats highlight.SessionStats, frames timing.Summary, wall time.Duration) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRow(table.Row{"Frames processed", humanize.Comma(safeconv.SafeInt64(stats.FramesProcessed))})
	tbl.AppendRow(table.Row{"Frames skipped", humanize.Comma(safeconv.SafeInt64(stats.FramesSkipped))})
	tbl.AppendRow(table.Row{"Patches applied", humanize.Comma(safeconv.SafeInt64(stats.PatchesApplied))})
	tbl.AppendRow(table.Row{"Notes added", humanize.Comma(safeconv.SafeInt64(stats.NotesAdded))})
	tbl.AppendRow(table.Row{"Notes removed", humanize.Comma(safeconv.SafeInt64(stats.NotesRemoved))})
	tbl.AppendRow(table.Row{"Degraded transitions", humanize.Comma(safeconv.SafeInt64(stats.DegradedTransitions))})
	tbl.AppendRow(table.Row{"Mean frame cost", frames.Mean.Round(time.Microsecond)})
	tbl.AppendRow(table.Row{"P95 frame cost", frames.P95.Round(time.Microsecond)})
	tbl.AppendRow(table.Row{"P99 frame cost", frames.P99.Round(time.Microsecond)})
	tbl.AppendRow(table.Row{"Max frame cost", frames.Max.Round(time.Microsecond)})
	tbl.AppendFooter(table.Row{"Wall time", wall.Round(time.Millisecond)})
	tbl.Render()

	if stats.DegradedTransitions > 0 {
		color.New(color.FgYellow).Fprintln(w, "playback degraded under budget pressure")
	} else {
		color.New(color.FgGreen).Fprintln(w, "playback stayed within the frame budget")
	}
}

// frameStatsObserver feeds processed-frame costs into a FrameStats
// collector. Skipped frames cost nothing and are excluded.
type frameStatsObserver struct {
	stats *timing.FrameStats
}

func (o frameStatsObserver) ObserveFrame(res highlight.FrameResult) {
	if res.Skipped {
		return
	}

	o.stats.Observe(res.Duration)
}

// progressObserver rewrites a single status line during realtime runs.
// The displayed cost is EMA-smoothed so it holds still long enough to
// read.
type progressObserver struct {
	w    io.Writer
	ema  *timing.CostEMA
	last time.Time
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{
		w:   w,
		ema: timing.NewCostEMA(progressSmoothing),
	}
}

func (o *progressObserver) ObserveFrame(res highlight.FrameResult) {
	if res.Skipped {
		return
	}

	smoothed := o.ema.Update(res.Duration)

	now := time.Now()
	if now.Sub(o.last) < progressInterval {
		return
	}

	o.last = now

	fmt.Fprintf(o.w, "\rtick %-8d frame cost %-12s", res.Tick, smoothed.Round(time.Microsecond))
}

// finish terminates the status line before the summary prints.
func (o *progressObserver) finish() {
	fmt.Fprintln(o.w)
}

// plannedFrameCount sizes sample buffers for a fixed-length run: one
// frame per interval over the score's play time, plus the final frame.
func plannedFrameCount(clock *playback.Clock, endTick int64, fps int) int {
	interval := time.Second / time.Duration(fps)

	return int(clock.TimeAt(endTick)/interval) + 1
}

// durationMs converts a millisecond count from configuration into a
// Duration. Non-positive values return zero, which downstream code treats
// as "use the default".
func durationMs(ms float64) time.Duration {
	if ms <= 0 {
		return 0
	}

	return time.Duration(ms * float64(time.Millisecond))
}

// effectiveFPS mirrors the loop's fallback so recordings carry the frame
// rate the run actually used.
func effectiveFPS(fps int) int {
	if fps <= 0 {
		return playback.DefaultFPS
	}

	return fps
}
