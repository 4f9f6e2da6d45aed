package sheet

import "strings"

// Change is a cell whose text differs between two renditions of a sheet.
// Row and Col are 0-based.
type Change struct {
	Row      int
	Col      int
	Cell     string
	OldValue string
	NewValue string
}

// Changes compares two renditions of a sheet cell by cell. Cells that differ
// only in surrounding whitespace, or that are missing on either side, are
// not reported.
func Changes(oldRows, newRows [][]string) []Change {
	var out []Change
	for r := 0; r < min(len(oldRows), len(newRows)); r++ {
		oldRow, newRow := oldRows[r], newRows[r]
		for c := 0; c < min(len(oldRow), len(newRow)); c++ {
			if strings.TrimSpace(oldRow[c]) == strings.TrimSpace(newRow[c]) {
				continue
			}
			cell, err := ToA1(r, c)
			if err != nil {
				continue
			}
			out = append(out, Change{
				Row:      r,
				Col:      c,
				Cell:     cell,
				OldValue: oldRow[c],
				NewValue: newRow[c],
			})
		}
	}
	return out
}
