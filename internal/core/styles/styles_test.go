package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	assert.Contains(t, names, DefaultTheme)
	assert.IsIncreasing(t, names)
}

func TestSetTheme(t *testing.T) {
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	p, ok := GetPalette("gruvbox")
	require.True(t, ok)
	SetTheme(p)

	assert.Equal(t, p, CurrentPalette)
	assert.Equal(t, lipgloss.TerminalColor(p.Warning), PendingStyle.GetForeground())

	WithHighlight("11")
	assert.Equal(t, lipgloss.TerminalColor(lipgloss.Color("11")), ChangedTokenStyle.GetForeground())

	WithHighlight("")
	assert.Equal(t, lipgloss.TerminalColor(lipgloss.Color("11")), ChangedTokenStyle.GetForeground())
}

func TestGetPalette_Unknown(t *testing.T) {
	_, ok := GetPalette("nope")
	assert.False(t, ok)
}
