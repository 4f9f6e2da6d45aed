package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the review panel's bindings. It implements help.KeyMap.
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Apply      key.Binding
	Reject     key.Binding
	UndoReject key.Binding
	Show       key.Binding
	Check      key.Binding
	Reload     key.Binding
	ToggleView key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Apply:      key.NewBinding(key.WithKeys("a", "enter"), key.WithHelp("a", "apply")),
		Reject:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reject")),
		UndoReject: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo reject")),
		Show:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "show cell")),
		Check:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check sheet")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload stored")),
		ToggleView: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "toggle view")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Apply, k.Reject, k.UndoReject, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Apply, k.Reject, k.UndoReject},
		{k.Show, k.Check, k.Reload, k.ToggleView},
		{k.Help, k.Quit},
	}
}
