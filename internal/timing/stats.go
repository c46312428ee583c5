// Package timing aggregates per-frame processing durations into the summary
// figures the simulate and bench commands report. Standard deviation is the
// population form and percentiles use linear interpolation.
package timing

import (
	"math"
	"slices"
	"time"
)

// Percentiles reported in frame summaries.
const (
	percentileMedian = 0.50
	percentileP95    = 0.95
	percentileP99    = 0.99
)

// FrameStats collects frame durations during a run. Observations are kept
// raw so percentiles stay exact; a 60fps run holds 3600 samples per minute,
// which is cheap.
//
// Not safe for concurrent use; the playback loop is the single writer.
type FrameStats struct {
	samples []time.Duration
}

// NewFrameStats creates an empty collector. capacityHint sizes the backing
// slice up front when the frame count is known, e.g. a fixed-length
// simulation.
func NewFrameStats(capacityHint int) *FrameStats {
	if capacityHint < 0 {
		capacityHint = 0
	}

	return &FrameStats{samples: make([]time.Duration, 0, capacityHint)}
}

// Observe records one frame duration.
func (f *FrameStats) Observe(d time.Duration) {
	f.samples = append(f.samples, d)
}

// Count returns the number of recorded frames.
func (f *FrameStats) Count() int {
	return len(f.samples)
}

// Summary holds the aggregate figures for one run.
type Summary struct {
	Count  int
	Mean   time.Duration
	StdDev time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
}

// Summarize computes the aggregate figures over everything observed so far.
// Returns the zero Summary when nothing was recorded.
func (f *FrameStats) Summarize() Summary {
	count := len(f.samples)
	if count == 0 {
		return Summary{}
	}

	sorted := make([]time.Duration, count)
	copy(sorted, f.samples)
	slices.Sort(sorted)

	mean, stddev := meanStdDev(f.samples)

	return Summary{
		Count:  count,
		Mean:   mean,
		StdDev: stddev,
		P50:    percentile(sorted, percentileMedian),
		P95:    percentile(sorted, percentileP95),
		P99:    percentile(sorted, percentileP99),
		Max:    sorted[count-1],
	}
}

// meanStdDev returns the arithmetic mean and population standard deviation.
func meanStdDev(samples []time.Duration) (mean, stddev time.Duration) {
	count := float64(len(samples))

	var sum float64

	for _, d := range samples {
		sum += float64(d)
	}

	m := sum / count

	var sumSq float64

	for _, d := range samples {
		diff := float64(d) - m
		sumSq += diff * diff
	}

	return time.Duration(m), time.Duration(math.Sqrt(sumSq / count))
}

// percentile returns the p-th percentile of an already sorted sample set
// using linear interpolation. p must be in [0, 1].
func percentile(sorted []time.Duration, p float64) time.Duration {
	count := len(sorted)

	idx := p * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return time.Duration(float64(sorted[lower])*(1-frac) + float64(sorted[upper])*frac)
}
