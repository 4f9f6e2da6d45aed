package sheet

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/colonyops/gramcheck/internal/core/diff"
)

// ErrNoSuchSheet is returned for a sheet name the workbook does not contain.
var ErrNoSuchSheet = errors.New("no such sheet")

// Workbook is an open .xlsx file. Methods are safe for concurrent use.
type Workbook struct {
	path string

	mu sync.Mutex
	f  *excelize.File
}

// Open opens the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{path: path, f: f}, nil
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string { return w.path }

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.GetSheetList()
}

// HasSheet reports whether the workbook contains name.
func (w *Workbook) HasSheet(name string) bool {
	return slices.Contains(w.Sheets(), name)
}

// Rows returns the sheet's cell text, row-major. Trailing empty cells are
// omitted, so rows may be ragged.
func (w *Workbook) Rows(sheetName string) ([][]string, error) {
	if !w.HasSheet(sheetName) {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchSheet, sheetName)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	rows, err := w.f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", sheetName, err)
	}
	return rows, nil
}

// Cell returns the text of one cell.
func (w *Workbook) Cell(sheetName, cell string) (string, error) {
	if !w.HasSheet(sheetName) {
		return "", fmt.Errorf("%w: %q", ErrNoSuchSheet, sheetName)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	v, err := w.f.GetCellValue(sheetName, cell)
	if err != nil {
		return "", fmt.Errorf("read %s!%s: %w", sheetName, cell, err)
	}
	return v, nil
}

// SetCell writes a plain text value.
func (w *Workbook) SetCell(sheetName, cell, value string) error {
	if !w.HasSheet(sheetName) {
		return fmt.Errorf("%w: %q", ErrNoSuchSheet, sheetName)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.SetCellValue(sheetName, cell, value); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheetName, cell, err)
	}
	return nil
}

// SetCellHighlighted writes newValue as rich text, colouring the tokens the
// diff marks as changed relative to oldValue.
func (w *Workbook) SetCellHighlighted(sheetName, cell, oldValue, newValue, color string) error {
	if !w.HasSheet(sheetName) {
		return fmt.Errorf("%w: %q", ErrNoSuchSheet, sheetName)
	}

	runs := RichRuns(diff.Highlight(oldValue, newValue).New, color)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.SetCellRichText(sheetName, cell, runs); err != nil {
		return fmt.Errorf("write rich text %s!%s: %w", sheetName, cell, err)
	}
	return nil
}

// RichRuns converts diff tokens to rich-text runs joined by single spaces.
// Adjacent tokens with the same marking share a run; separators are never
// coloured.
func RichRuns(tokens []diff.Token, color string) []excelize.RichTextRun {
	var (
		runs    []excelize.RichTextRun
		buf     strings.Builder
		changed bool
	)
	flush := func() {
		run := excelize.RichTextRun{Text: buf.String()}
		if changed {
			run.Font = &excelize.Font{Color: color}
		}
		runs = append(runs, run)
		buf.Reset()
	}

	for i, tok := range tokens {
		sep := ""
		if i > 0 {
			sep = " "
		}
		if tok.Changed != changed && buf.Len() > 0 {
			if !changed {
				buf.WriteString(sep)
				sep = ""
			}
			flush()
		}
		changed = tok.Changed
		buf.WriteString(sep)
		buf.WriteString(tok.Text)
	}
	if buf.Len() > 0 {
		flush()
	}
	return runs
}

// Save writes the workbook back to its file.
func (w *Workbook) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteTo writes the workbook, including unsaved edits, to dst as .xlsx.
func (w *Workbook) WriteTo(dst io.Writer) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.f.WriteTo(dst)
	if err != nil {
		return n, fmt.Errorf("write workbook: %w", err)
	}
	return n, nil
}

// Close releases the workbook's resources without saving.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
