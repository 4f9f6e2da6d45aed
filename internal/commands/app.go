package commands

import (
	"github.com/colonyops/gramcheck/internal/core/correction"
	"github.com/colonyops/gramcheck/internal/core/eventbus"
	"github.com/colonyops/gramcheck/internal/core/logging"
	"github.com/colonyops/gramcheck/internal/core/review"
)

// App holds the dependencies shared by commands. main allocates it before
// registering commands and populates it in the root Before hook.
type App struct {
	Bus     *eventbus.EventBus
	Gateway correction.Gateway
}

// NewApp creates an App. bus may be nil.
func NewApp(gw correction.Gateway, bus *eventbus.EventBus) *App {
	return &App{Gateway: gw, Bus: bus}
}

// NewState creates an empty review state over the app's gateway.
func (a *App) NewState() *review.State {
	return review.New(a.Gateway, a.Bus, logging.Component("review"))
}
