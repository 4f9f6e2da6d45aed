// Package styles provides shared lipgloss styles for the CLI and the review TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports. Rebuilt by SetTheme.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	DividerStyle       lipgloss.Style
	LabelStyle         lipgloss.Style

	// Review panel styles.
	TitleStyle     lipgloss.Style
	SelectedStyle  lipgloss.Style
	NormalStyle    lipgloss.Style
	MutedStyle     lipgloss.Style
	PendingStyle   lipgloss.Style
	RejectedStyle  lipgloss.Style
	InFlightStyle  lipgloss.Style
	StatusOKStyle  lipgloss.Style
	StatusErrStyle lipgloss.Style
	DetailStyle    lipgloss.Style
	HelpStyle      lipgloss.Style

	// ChangedTokenStyle marks tokens that differ between the old and new value.
	ChangedTokenStyle lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	LabelStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Width(5)

	TitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		MarginBottom(1)
	SelectedStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	NormalStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	MutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	PendingStyle = lipgloss.NewStyle().
		Foreground(p.Warning)
	RejectedStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Strikethrough(true)
	InFlightStyle = lipgloss.NewStyle().
		Foreground(p.Secondary)
	StatusOKStyle = lipgloss.NewStyle().
		Foreground(p.Success)
	StatusErrStyle = lipgloss.NewStyle().
		Foreground(p.Error)
	DetailStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		PaddingLeft(1)

	ChangedTokenStyle = lipgloss.NewStyle().
		Foreground(p.Warning).
		Bold(true).
		Underline(true)
}

// WithHighlight overrides the changed-token foreground. An empty color keeps
// the palette's warning color.
func WithHighlight(color string) {
	if color == "" {
		return
	}
	ChangedTokenStyle = ChangedTokenStyle.Foreground(lipgloss.Color(color))
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
