// Package report renders a recorded playback trace into a self-contained
// HTML page of charts: per-frame durations against the budget with skipped
// frames marked, and the active-note count over the run.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/aylabs/musicore-playback/internal/timing"
	"github.com/aylabs/musicore-playback/internal/trace"
)

const (
	chartWidth  = "1200px"
	chartHeight = "480px"

	lineWidth     = 2
	lineWidthThin = 1

	durationColor = "#5470c6"
	budgetColor   = "#ee6666"
	activeColor   = "#91cc75"
	skipColor     = "#fac858"
)

// Render writes the full report page for a trace.
func Render(w io.Writer, tr *trace.Trace) error {
	page := components.NewPage()
	page.AddCharts(buildDurationChart(tr), buildActiveChart(tr))

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}

// RenderFile writes the report page to a file.
func RenderFile(path string, tr *trace.Trace) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	return Render(file, tr)
}

// buildDurationChart plots per-frame cost in milliseconds, a constant
// budget series, and a baseline marker for every skipped frame.
func buildDurationChart(tr *trace.Trace) *charts.Line {
	labels := frameLabels(tr)

	durations := make([]opts.LineData, len(tr.Frames))
	budget := make([]opts.LineData, len(tr.Frames))
	skips := make([]opts.ScatterData, len(tr.Frames))

	budgetMillis := float64(tr.BudgetMicros) / 1000

	stats := timing.NewFrameStats(len(tr.Frames))
	skipped := 0

	for i, f := range tr.Frames {
		durations[i] = opts.LineData{Value: float64(f.DurationMicros) / 1000}
		budget[i] = opts.LineData{Value: budgetMillis}

		if f.Skipped {
			skips[i] = opts.ScatterData{Value: 0}
			skipped++

			continue
		}

		stats.Observe(time.Duration(f.DurationMicros) * time.Microsecond)
	}

	summary := stats.Summarize()
	subtitle := fmt.Sprintf("%s · budget %.2fms · mean %.3fms · p95 %.3fms · max %.3fms · %d/%d skipped",
		tr.Score, budgetMillis, millis(summary.Mean), millis(summary.P95), millis(summary.Max),
		skipped, len(tr.Frames))

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Frame durations", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(labels)

	line.AddSeries("duration", durations,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: durationColor}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("budget", budget,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: budgetColor}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidthThin, Type: "dashed"}),
	)

	if skipped > 0 {
		scatter := charts.NewScatter()
		scatter.SetXAxis(labels)
		scatter.AddSeries("skipped", skips,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: skipColor}),
		)

		line.Overlap(scatter)
	}

	return line
}

// buildActiveChart plots the number of highlighted notes per frame.
func buildActiveChart(tr *trace.Trace) *charts.Line {
	labels := frameLabels(tr)

	active := make([]opts.LineData, len(tr.Frames))
	for i, f := range tr.Frames {
		active[i] = opts.LineData{Value: f.Active}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Active notes"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "notes"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(labels)

	line.AddSeries("active", active,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: activeColor}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)

	return line
}

// frameLabels renders the x axis as frame sequence numbers.
func frameLabels(tr *trace.Trace) []string {
	labels := make([]string, len(tr.Frames))
	for i, f := range tr.Frames {
		labels[i] = strconv.Itoa(f.Seq)
	}

	return labels
}

// millis formats a duration as fractional milliseconds.
func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
