package stores

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/gramcheck/internal/core/review"
	"github.com/colonyops/gramcheck/internal/data/db"
)

// HistoryStore implements review.HistoryStore using SQLite.
type HistoryStore struct {
	db *db.DB
}

var _ review.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore creates a new SQLite-backed correction history store.
func NewHistoryStore(db *db.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// PathHash returns the key a workbook path is stored under.
func PathHash(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

// UpsertWorkbook registers a workbook. An existing record for the same path
// is replaced together with its correction history.
func (s *HistoryStore) UpsertWorkbook(ctx context.Context, path, onlineURL string, sheets []string) (review.Workbook, error) {
	if sheets == nil {
		sheets = []string{}
	}
	sheetsJSON, err := json.Marshal(sheets)
	if err != nil {
		return review.Workbook{}, fmt.Errorf("failed to marshal sheet names: %w", err)
	}

	wb := review.Workbook{
		ID:        uuid.NewString(),
		Path:      path,
		PathHash:  PathHash(path),
		OnlineURL: onlineURL,
		Sheets:    sheets,
		CreatedAt: time.Now(),
	}
	fileType := strings.TrimPrefix(filepath.Ext(path), ".")

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM workbooks WHERE path_hash = ?", wb.PathHash); err != nil {
			return fmt.Errorf("failed to delete previous workbook: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO workbooks (id, path, path_hash, online_url, sheets, file_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			wb.ID, wb.Path, wb.PathHash, wb.OnlineURL, string(sheetsJSON), fileType, wb.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert workbook: %w", err)
		}
		return nil
	})
	if err != nil {
		return review.Workbook{}, err
	}

	return wb, nil
}

// GetWorkbook returns the workbook registered for path.
func (s *HistoryStore) GetWorkbook(ctx context.Context, path string) (review.Workbook, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, path, path_hash, online_url, sheets, created_at
		FROM workbooks WHERE path_hash = ?`, PathHash(path))

	wb, err := scanWorkbook(row)
	if IsNotFoundError(err) {
		return review.Workbook{}, review.ErrWorkbookNotFound
	}
	if err != nil {
		return review.Workbook{}, fmt.Errorf("failed to get workbook: %w", err)
	}
	return wb, nil
}

// ListWorkbooks returns every registered workbook, oldest first.
func (s *HistoryStore) ListWorkbooks(ctx context.Context) ([]review.Workbook, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, path, path_hash, online_url, sheets, created_at
		FROM workbooks ORDER BY created_at, path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workbooks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []review.Workbook
	for rows.Next() {
		wb, err := scanWorkbook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workbook: %w", err)
		}
		out = append(out, wb)
	}
	return out, rows.Err()
}

// ReplaceSheet deletes the sheet's history and inserts entries in one transaction.
func (s *HistoryStore) ReplaceSheet(ctx context.Context, workbookID, sheet string, entries []review.Entry) error {
	now := time.Now().UnixNano()
	return retryBusy(ctx, func() error { return s.replaceSheet(ctx, workbookID, sheet, entries, now) })
}

func (s *HistoryStore) replaceSheet(ctx context.Context, workbookID, sheet string, entries []review.Entry, now int64) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM corrections WHERE workbook_id = ? AND sheet_name = ?", workbookID, sheet)
		if err != nil {
			return fmt.Errorf("failed to clear sheet history: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO corrections
				(workbook_id, sheet_name, row_index, col_index, old_value, new_value, rejected, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, e := range entries {
			_, err := stmt.ExecContext(ctx, workbookID, sheet, e.Row, e.Col, e.OldValue, e.NewValue, e.Rejected, now)
			if err != nil {
				return fmt.Errorf("failed to insert correction (%d,%d): %w", e.Row, e.Col, err)
			}
		}
		return nil
	})
}

// ListSheet returns the sheet's history ordered by row, then column.
func (s *HistoryStore) ListSheet(ctx context.Context, workbookID, sheet string) ([]review.Entry, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT sheet_name, row_index, col_index, old_value, new_value, rejected
		FROM corrections
		WHERE workbook_id = ? AND sheet_name = ?
		ORDER BY row_index, col_index`, workbookID, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []review.Entry{}
	for rows.Next() {
		var e review.Entry
		if err := rows.Scan(&e.Sheet, &e.Row, &e.Col, &e.OldValue, &e.NewValue, &e.Rejected); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetRejected flags or unflags one entry.
func (s *HistoryStore) SetRejected(ctx context.Context, workbookID, sheet string, row, col int, rejected bool) error {
	err := retryBusy(ctx, func() error {
		_, err := s.db.Conn().ExecContext(ctx, `
			UPDATE corrections SET rejected = ?
			WHERE workbook_id = ? AND sheet_name = ? AND row_index = ? AND col_index = ?`,
			rejected, workbookID, sheet, row, col)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set reject status: %w", err)
	}
	return nil
}

// DeleteEntry removes one entry.
func (s *HistoryStore) DeleteEntry(ctx context.Context, workbookID, sheet string, row, col int) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		DELETE FROM corrections
		WHERE workbook_id = ? AND sheet_name = ? AND row_index = ? AND col_index = ?`,
		workbookID, sheet, row, col)
	if err != nil {
		return fmt.Errorf("failed to delete correction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkbook(row scanner) (review.Workbook, error) {
	var (
		wb        review.Workbook
		sheets    string
		createdAt int64
	)
	if err := row.Scan(&wb.ID, &wb.Path, &wb.PathHash, &wb.OnlineURL, &sheets, &createdAt); err != nil {
		return review.Workbook{}, err
	}
	if err := json.Unmarshal([]byte(sheets), &wb.Sheets); err != nil {
		return review.Workbook{}, fmt.Errorf("failed to unmarshal sheet names: %w", err)
	}
	wb.CreatedAt = time.Unix(0, createdAt)
	return wb, nil
}
