package correction

import "context"

// ViewFragment is pre-rendered markup of the current sheet state. It is
// passed through verbatim and never parsed.
type ViewFragment string

// CheckResult is the outcome of a grammar check over one sheet.
type CheckResult struct {
	View    ViewFragment
	Records []Record
}

// Gateway is the backend that proposes corrections and mutates the sheet.
type Gateway interface {
	// CheckGrammar scans a sheet and returns fresh proposals.
	CheckGrammar(ctx context.Context, sheetName string) (CheckResult, error)

	// ShowSheet selects a sheet and returns its stored corrections, reject
	// flags included, without re-running the check.
	ShowSheet(ctx context.Context, sheetName string) (CheckResult, error)

	// ShowCell returns a view focused on the given cell.
	ShowCell(ctx context.Context, cell string) (ViewFragment, error)

	// ChangeCell writes newValue into the cell and returns the updated view.
	ChangeCell(ctx context.Context, cell, oldValue, newValue string) (ViewFragment, error)

	// SetRejectStatus flags or unflags a correction and returns the
	// backend's full list of corrections for the sheet.
	SetRejectStatus(ctx context.Context, cell string, status bool) ([]Record, error)

	// PostCell acknowledges a cell selection. The response is opaque.
	PostCell(ctx context.Context, sheetName string, row, col int) (map[string]any, error)
}

// Wire request and response bodies shared by the HTTP client and server.
type (
	CheckGrammarRequest struct {
		SheetName string `json:"sheet_name"`
	}
	CheckGrammarResponse struct {
		IFrame  string   `json:"iframe"`
		Results []Record `json:"results"`
	}

	ShowSheetRequest struct {
		SheetName string `json:"sheet_name"`
	}
	ShowSheetResponse struct {
		IFrame            string   `json:"iframe"`
		CurrentSheetName  string   `json:"current_sheet_name"`
		CorrectionResults []Record `json:"correction_results"`
	}

	ShowCellRequest struct {
		Cell string `json:"cell"`
	}
	ViewResponse struct {
		IFrame           string `json:"iframe"`
		CurrentSheetName string `json:"current_sheet_name,omitempty"`
	}

	ChangeCellRequest struct {
		Cell     string `json:"cell"`
		OldValue string `json:"old_value"`
		NewValue string `json:"new_value"`
	}

	SetRejectStatusRequest struct {
		Cell   string `json:"cell"`
		Status bool   `json:"status"`
	}
	SetRejectStatusResponse struct {
		CorrectionResults []Record `json:"correction_results"`
	}

	PostCellRequest struct {
		SheetName string `json:"sheet_name"`
		Row       int    `json:"row"`
		Col       int    `json:"col"`
	}
)
