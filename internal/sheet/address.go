// Package sheet reads and writes spreadsheet workbooks and renders the view
// fragments the backend returns for them.
package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ToA1 converts 0-based row and column indexes to an A1 cell name.
func ToA1(row, col int) (string, error) {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", fmt.Errorf("cell (%d,%d): %w", row, col, err)
	}
	return name, nil
}

// FromA1 converts an A1 cell name to 0-based row and column indexes.
// Surrounding whitespace and lowercase column letters are accepted.
func FromA1(cell string) (row, col int, err error) {
	c, r, err := excelize.CellNameToCoordinates(strings.ToUpper(strings.TrimSpace(cell)))
	if err != nil {
		return 0, 0, fmt.Errorf("cell %q: %w", cell, err)
	}
	return r - 1, c - 1, nil
}
