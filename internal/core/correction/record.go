package correction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

var errRequired = errors.New("is required")

// Record is the wire shape of a correction as exchanged with the backend.
type Record struct {
	Cell     string `json:"cell"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
	IsReject bool   `json:"is_reject"`
}

// Validate checks that the record names a cell and carries both values.
// The returned error is a criterio.FieldErrors listing every missing field.
func (r Record) Validate() error {
	var errs criterio.FieldErrorsBuilder
	if strings.TrimSpace(r.Cell) == "" {
		errs = errs.Append("cell", errRequired)
	}
	if r.OldValue == "" {
		errs = errs.Append("old_value", errRequired)
	}
	if r.NewValue == "" {
		errs = errs.Append("new_value", errRequired)
	}
	return errs.ToError()
}

// Correction converts a record to its domain form. It does not validate.
func (r Record) Correction() Correction {
	return Correction{
		CellID:     strings.TrimSpace(r.Cell),
		OldValue:   r.OldValue,
		NewValue:   r.NewValue,
		IsRejected: r.IsReject,
	}
}

// ValidationError describes a malformed record dropped during ingestion.
type ValidationError struct {
	Index  int
	Record Record
	Err    error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid correction at index %d (cell %q): %v", e.Index, e.Record.Cell, e.Err)
}

func (e ValidationError) Unwrap() error { return e.Err }

// FromRecords validates raw records and builds a set from the valid ones.
// Invalid records are returned as ValidationErrors and never enter the set.
func FromRecords(records []Record) (Set, []ValidationError) {
	var (
		valid   = make([]Correction, 0, len(records))
		invalid []ValidationError
	)

	for i, r := range records {
		if err := r.Validate(); err != nil {
			invalid = append(invalid, ValidationError{Index: i, Record: r, Err: err})
			continue
		}
		valid = append(valid, r.Correction())
	}

	return NewSet(valid...), invalid
}
