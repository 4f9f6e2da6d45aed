package styles

// Correction status icons.
var (
	IconPending  = "●"
	IconRejected = "✗"
	IconApplied  = "✓"
	IconInFlight = "…"
	IconCursor   = "▸"
	IconDot      = "•"
)
