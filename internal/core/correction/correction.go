// Package correction defines proposed cell corrections, their wire format,
// and the contract of the backend that produces and applies them.
package correction

// Status is the lifecycle state of a correction.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusApplied  Status = "applied" // terminal; applied corrections leave the set
)

// Correction is a proposed replacement of a cell's text value. CellID is its
// identity: a set holds at most one correction per cell.
type Correction struct {
	CellID     string
	OldValue   string
	NewValue   string
	IsRejected bool
}

// Status derives the lifecycle state from the rejected flag.
func (c Correction) Status() Status {
	if c.IsRejected {
		return StatusRejected
	}
	return StatusPending
}

// SameProposal reports whether o proposes the same change to the same cell,
// regardless of reject status.
func (c Correction) SameProposal(o Correction) bool {
	return c.CellID == o.CellID && c.OldValue == o.OldValue && c.NewValue == o.NewValue
}

// Record converts the correction to its wire representation.
func (c Correction) Record() Record {
	return Record{
		Cell:     c.CellID,
		OldValue: c.OldValue,
		NewValue: c.NewValue,
		IsReject: c.IsRejected,
	}
}

// Set is an ordered, immutable collection of corrections keyed by cell.
// Pending and Rejected partition it by IsRejected.
type Set struct {
	items []Correction
}

// NewSet builds a set from cs. A later correction for a cell replaces an
// earlier one while keeping the earlier one's position.
func NewSet(cs ...Correction) Set {
	items := make([]Correction, 0, len(cs))
	index := make(map[string]int, len(cs))
	for _, c := range cs {
		if i, ok := index[c.CellID]; ok {
			items[i] = c
			continue
		}
		index[c.CellID] = len(items)
		items = append(items, c)
	}
	return Set{items: items}
}

// Len returns the number of corrections.
func (s Set) Len() int { return len(s.items) }

// All returns a copy of every correction in order.
func (s Set) All() []Correction {
	out := make([]Correction, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the correction for cellID.
func (s Set) Get(cellID string) (Correction, bool) {
	for _, c := range s.items {
		if c.CellID == cellID {
			return c, true
		}
	}
	return Correction{}, false
}

// Pending returns the corrections still awaiting a decision.
func (s Set) Pending() []Correction {
	return s.filter(func(c Correction) bool { return !c.IsRejected })
}

// Rejected returns the corrections the reviewer has rejected.
func (s Set) Rejected() []Correction {
	return s.filter(func(c Correction) bool { return c.IsRejected })
}

func (s Set) filter(keep func(Correction) bool) []Correction {
	var out []Correction
	for _, c := range s.items {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Without returns a copy of the set with cellID removed.
func (s Set) Without(cellID string) Set {
	return Set{items: s.filter(func(c Correction) bool { return c.CellID != cellID })}
}

// Equal reports whether both sets hold the same corrections in the same order.
func (s Set) Equal(o Set) bool {
	if len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		if s.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

// Records converts the set to its wire representation.
func (s Set) Records() []Record {
	out := make([]Record, len(s.items))
	for i, c := range s.items {
		out[i] = c.Record()
	}
	return out
}
