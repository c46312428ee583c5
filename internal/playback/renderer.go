package playback

import (
	"io"

	"github.com/fatih/color"

	"github.com/aylabs/musicore-playback/pkg/highlight"
)

// FrameObserver receives every frame result the loop produces, skipped
// frames included. Observers run inside the frame, so they must be cheap.
type FrameObserver interface {
	ObserveFrame(result highlight.FrameResult)
}

var (
	_ highlight.Renderer = NullRenderer{}
	_ highlight.Renderer = (*ConsoleRenderer)(nil)
)

// NullRenderer discards patches. Measurement and benchmark runs use it.
type NullRenderer struct{}

// ApplyPatch implements highlight.Renderer.
func (NullRenderer) ApplyPatch(highlight.Patch) {}

// ConsoleRenderer prints one line per highlight change: additions in
// green, removals in red.
type ConsoleRenderer struct {
	out io.Writer
}

// NewConsoleRenderer creates a console renderer writing to out.
func NewConsoleRenderer(out io.Writer) *ConsoleRenderer {
	return &ConsoleRenderer{out: out}
}

// ApplyPatch implements highlight.Renderer.
func (r *ConsoleRenderer) ApplyPatch(patch highlight.Patch) {
	for _, id := range patch.Added {
		color.New(color.FgGreen).Fprintf(r.out, "  + %s\n", id)
	}

	for _, id := range patch.Removed {
		color.New(color.FgRed).Fprintf(r.out, "  - %s\n", id)
	}
}
