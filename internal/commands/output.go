package commands

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/diff"
	"github.com/colonyops/gramcheck/internal/core/styles"
	"github.com/colonyops/gramcheck/pkg/iojson"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// markerFor picks coloured output for terminals and brackets otherwise.
func markerFor(w io.Writer) diff.Marker {
	if isTerminal(w) {
		return diff.MarkerFunc(func(s string) string { return styles.ChangedTokenStyle.Render(s) })
	}
	return diff.BracketMarker{}
}

func errWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// writeJSON writes v as indented JSON to w.
func writeJSON(w, ew io.Writer, v any) error {
	return iojson.WriteWith(w, errWriter(ew), v)
}

// printSet writes pending then rejected corrections with their diffs.
func printSet(w io.Writer, memo *diff.Memo, set correction.Set) {
	m := markerFor(w)
	pending, rejected := set.Pending(), set.Rejected()

	_, _ = fmt.Fprintln(w, styles.CommandHeaderStyle.Render(fmt.Sprintf("Pending (%d)", len(pending))))
	for _, c := range pending {
		printCorrection(w, memo, m, c)
	}

	_, _ = fmt.Fprintln(w, styles.CommandHeaderStyle.Render(fmt.Sprintf("Rejected (%d)", len(rejected))))
	for _, c := range rejected {
		printCorrection(w, memo, m, c)
	}
}

func printCorrection(w io.Writer, memo *diff.Memo, m diff.Marker, c correction.Correction) {
	oldMarked, newMarked := memo.Highlight(c.OldValue, c.NewValue).Render(m)
	_, _ = fmt.Fprintf(w, "  %s\n", c.CellID)
	_, _ = fmt.Fprintf(w, "    - %s\n", oldMarked)
	_, _ = fmt.Fprintf(w, "    + %s\n", newMarked)
}
