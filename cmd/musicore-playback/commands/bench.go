package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aylabs/musicore-playback/internal/score"
	"github.com/aylabs/musicore-playback/pkg/highlight"
)

// defaultBenchQueries is the query count when --queries is not given.
const defaultBenchQueries = 100_000

// defaultBenchMeasures sizes the default fixture at exactly 10k spans,
// 16 notes per measure.
const defaultBenchMeasures = 625

// queryScratchCapacity pre-sizes the reused result buffer; dense chords
// rarely exceed a few dozen simultaneous notes.
const queryScratchCapacity = 64

var (
	// ErrInvalidQueries rejects non-positive benchmark query counts.
	ErrInvalidQueries = errors.New("queries must be positive")

	// ErrScoreEmpty rejects benchmarking a score with no playable range.
	ErrScoreEmpty = errors.New("score has no playable range")
)

// BenchCommand measures index build time and query throughput, either on
// the generated dense fixture or on a real score file.
type BenchCommand struct {
	measures int
	queries  int
	seed     uint64
}

// NewBenchCommand creates the bench command.
func NewBenchCommand() *cobra.Command {
	c := &BenchCommand{}

	cmd := &cobra.Command{
		Use:   "bench [score]",
		Short: "Benchmark interval index build and query throughput",
		Long: `Benchmark interval index build and query throughput.

Without a score argument the benchmark runs on the generated dense
fixture: two staves of continuous eighth notes. Query ticks come from a
seeded PRNG, so repeated runs measure the same access pattern.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.run,
	}

	cmd.Flags().IntVar(&c.measures, "measures", defaultBenchMeasures, "dense fixture length in measures (ignored with a score argument)")
	cmd.Flags().IntVar(&c.queries, "queries", defaultBenchQueries, "number of random-tick queries to run")
	cmd.Flags().Uint64Var(&c.seed, "seed", 1, "PRNG seed for query tick selection")

	return cmd
}

func (c *BenchCommand) run(cmd *cobra.Command, args []string) error {
	if c.queries <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQueries, c.queries)
	}

	sc, err := c.subject(args)
	if err != nil {
		return err
	}

	end := sc.EndTick()
	if end <= 0 {
		return fmt.Errorf("%w: %s", ErrScoreEmpty, sc.ID)
	}

	spans := sc.Flatten()

	buildStart := time.Now()

	ix := highlight.NewIndex()
	ix.Build(spans)

	buildTime := time.Since(buildStart)

	rng := splitmix64{state: c.seed}
	buf := make([]string, 0, queryScratchCapacity)

	var active int64

	queryStart := time.Now()

	for range c.queries {
		buf = ix.AppendActive(buf[:0], rng.int64n(end))
		active += int64(len(buf))
	}

	queryTime := time.Since(queryStart)
	if queryTime <= 0 {
		queryTime = time.Nanosecond
	}

	if !quietOn(cmd) {
		c.printResults(cmd, ix, buildTime, queryTime, active)
	}

	return nil
}

// subject picks what to benchmark: the score argument when given, the
// dense fixture otherwise.
func (c *BenchCommand) subject(args []string) (*score.Score, error) {
	if len(args) == 0 {
		return score.GenerateDense(c.measures), nil
	}

	sc, err := score.Load(args[0])
	if err != nil {
		return nil, fmt.Errorf("load score: %w", err)
	}

	return sc, nil
}

func (c *BenchCommand) printResults(cmd *cobra.Command, ix *highlight.Index, buildTime, queryTime time.Duration, active int64) {
	perQuery := queryTime / time.Duration(c.queries)
	qps := float64(c.queries) / queryTime.Seconds()
	meanActive := float64(active) / float64(c.queries)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRow(table.Row{"Notes indexed", humanize.Comma(int64(ix.Len()))})
	tbl.AppendRow(table.Row{"Max span ticks", humanize.Comma(ix.MaxSpan())})
	tbl.AppendRow(table.Row{"Build time", buildTime.Round(time.Microsecond)})
	tbl.AppendRow(table.Row{"Queries", humanize.Comma(int64(c.queries))})
	tbl.AppendRow(table.Row{"Query time", queryTime.Round(time.Microsecond)})
	tbl.AppendRow(table.Row{"Per query", perQuery})
	tbl.AppendRow(table.Row{"Queries/sec", humanize.Comma(int64(qps))})
	tbl.AppendRow(table.Row{"Mean active notes", fmt.Sprintf("%.1f", meanActive)})
	tbl.Render()
}

// splitmix64 is a fast, non-cryptographic PRNG. A fixed seed keeps
// benchmark runs comparable; math/rand would trip gosec G404 anyway.
type splitmix64 struct {
	state uint64
}

// splitmix64 mixing constants.
const (
	splitmixInc    = 0x9e3779b97f4a7c15
	splitmixMix1   = 0xbf58476d1ce4e5b9
	splitmixMix2   = 0x94d049bb133111eb
	splitmixShift1 = 30
	splitmixShift2 = 27
	splitmixShift3 = 31
)

// next returns the next pseudo-random uint64.
func (r *splitmix64) next() uint64 {
	r.state += splitmixInc

	z := r.state
	z = (z ^ (z >> splitmixShift1)) * splitmixMix1
	z = (z ^ (z >> splitmixShift2)) * splitmixMix2

	return z ^ (z >> splitmixShift3)
}

// int64n returns a pseudo-random int64 in [0, n). n must be positive.
func (r *splitmix64) int64n(n int64) int64 {
	return int64(r.next()>>1) % n
}
