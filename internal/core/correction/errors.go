package correction

import (
	"errors"
	"fmt"
)

// Op names a reviewer action or backend call.
type Op string

const (
	OpCheckGrammar    Op = "checkGrammar"
	OpShowSheet       Op = "showSheet"
	OpShow            Op = "show"
	OpApply           Op = "apply"
	OpReject          Op = "reject"
	OpUndoReject      Op = "undoReject"
	OpPostCell        Op = "postCell"
	OpSetRejectStatus Op = "setRejectStatus"
)

// Sentinel reasons carried by PreconditionError.
var (
	ErrNotApplicable = errors.New("not applicable")
	ErrInFlight      = errors.New("another action for this cell is in flight")
)

// PreconditionError reports an action requested against a cell that is not
// in the state the action requires. errors.Is matches its Reason.
type PreconditionError struct {
	Op     Op
	Cell   string
	Status Status // state observed when the action was refused; empty if the cell is unknown
	Reason error
}

func (e *PreconditionError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("%s %s: %v: no such correction", e.Op, e.Cell, e.Reason)
	}
	return fmt.Sprintf("%s %s: %v: correction is %s", e.Op, e.Cell, e.Reason, e.Status)
}

func (e *PreconditionError) Unwrap() error { return e.Reason }

// GatewayError wraps a failed backend call. Local state is left unchanged
// when one is returned.
type GatewayError struct {
	Op   Op
	Cell string
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Cell == "" {
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s %s: %v", e.Op, e.Cell, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsGateway reports whether err is a GatewayError.
func IsGateway(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
