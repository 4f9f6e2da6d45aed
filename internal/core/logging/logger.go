package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger().Hook(ContextHook{})
}

// Cell returns a child of l tagged with the cell under action.
func Cell(l zerolog.Logger, cell string) zerolog.Logger {
	return l.With().Str("cell", cell).Logger()
}
