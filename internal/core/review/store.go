package review

import (
	"context"
	"errors"
	"time"
)

// ErrWorkbookNotFound is returned when no history exists for a workbook path.
var ErrWorkbookNotFound = errors.New("workbook not found")

// Workbook is a spreadsheet file known to the correction history.
type Workbook struct {
	ID        string
	Path      string
	PathHash  string // SHA256 of Path
	OnlineURL string
	Sheets    []string
	CreatedAt time.Time
}

// Entry is one persisted correction, addressed by 0-based row and column.
type Entry struct {
	Sheet    string
	Row      int
	Col      int
	OldValue string
	NewValue string
	Rejected bool
}

// HistoryStore persists proposed corrections per workbook and sheet.
type HistoryStore interface {
	// UpsertWorkbook registers a workbook, replacing any earlier record
	// and its history for the same path.
	UpsertWorkbook(ctx context.Context, path, onlineURL string, sheets []string) (Workbook, error)

	// GetWorkbook returns the workbook registered for path.
	// Returns ErrWorkbookNotFound if not found.
	GetWorkbook(ctx context.Context, path string) (Workbook, error)

	// ListWorkbooks returns every registered workbook, oldest first.
	ListWorkbooks(ctx context.Context) ([]Workbook, error)

	// ReplaceSheet deletes the sheet's history and stores entries in its place.
	ReplaceSheet(ctx context.Context, workbookID, sheet string, entries []Entry) error

	// ListSheet returns the sheet's history ordered by row, then column.
	ListSheet(ctx context.Context, workbookID, sheet string) ([]Entry, error)

	// SetRejected flags or unflags one entry. Unknown entries are ignored.
	SetRejected(ctx context.Context, workbookID, sheet string, row, col int, rejected bool) error

	// DeleteEntry removes one entry, typically after it was applied.
	DeleteEntry(ctx context.Context, workbookID, sheet string, row, col int) error
}
