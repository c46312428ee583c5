package trace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Divergence summarizes a line-mode comparison of two traces.
type Divergence struct {
	// Equal is true when every frame matches semantically.
	Equal bool

	// EqualLines, DeletedLines, and InsertedLines count canonical frame
	// lines: deleted lines exist only in the left trace, inserted only in
	// the right.
	EqualLines    int
	DeletedLines  int
	InsertedLines int

	// FirstSeq is the frame sequence where the traces first diverge, -1
	// when they are equal.
	FirstSeq int

	// FirstDeleted and FirstInserted are the first differing canonical
	// lines from each side, empty when that side has no edits.
	FirstDeleted  string
	FirstInserted string
}

// Compare diffs two traces frame by frame. Frames compare on their
// semantic content: tick, skip decision, active count, and patch ids.
// Measured durations are excluded, so recordings of the same run on
// different machines compare equal.
func Compare(left, right *Trace) Divergence {
	dmp := diffmatchpatch.New()

	src, dst, lines := dmp.DiffLinesToRunes(canonical(left), canonical(right))
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCleanupMerge(dmp.DiffCleanupSemanticLossless(diffs))
	diffs = dmp.DiffCharsToLines(diffs, lines)

	div := Divergence{FirstSeq: -1}

	for _, edit := range diffs {
		count := strings.Count(edit.Text, "\n")

		switch edit.Type {
		case diffmatchpatch.DiffEqual:
			div.EqualLines += count
		case diffmatchpatch.DiffDelete:
			div.DeletedLines += count

			if div.FirstSeq < 0 {
				div.FirstSeq = div.EqualLines
			}

			if div.FirstDeleted == "" {
				div.FirstDeleted = firstLine(edit.Text)
			}
		case diffmatchpatch.DiffInsert:
			div.InsertedLines += count

			if div.FirstSeq < 0 {
				div.FirstSeq = div.EqualLines
			}

			if div.FirstInserted == "" {
				div.FirstInserted = firstLine(edit.Text)
			}
		}
	}

	div.Equal = div.DeletedLines == 0 && div.InsertedLines == 0

	return div
}

// canonical renders a trace as one line per frame. Patch ids are sorted so
// the comparison does not depend on query emission order.
func canonical(tr *Trace) string {
	var b strings.Builder

	for _, f := range tr.Frames {
		fmt.Fprintf(&b, "seq=%d tick=%d skipped=%t active=%d added=%s removed=%s\n",
			f.Seq, f.Tick, f.Skipped, f.Active, joinSorted(f.Added), joinSorted(f.Removed))
	}

	return b.String()
}

// joinSorted joins a sorted copy of ids with commas.
func joinSorted(ids []string) string {
	if len(ids) == 0 {
		return ""
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	return strings.Join(sorted, ",")
}

// firstLine returns text up to the first newline.
func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")

	return line
}
