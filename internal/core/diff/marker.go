package diff

import (
	"fmt"
	"html"
)

// Marker renders tokens for a particular output medium.
type Marker interface {
	// Mark renders a changed token.
	Mark(token string) string
	// Plain renders an unchanged token.
	Plain(token string) string
}

// HighlightStyle is the inline style applied by HTMLMarker.
const HighlightStyle = "background:yellow"

// HTMLMarker wraps changed tokens in a styled span. Both changed and
// unchanged tokens are HTML-escaped.
type HTMLMarker struct {
	// Style overrides HighlightStyle when set.
	Style string
}

func (m HTMLMarker) Mark(token string) string {
	style := m.Style
	if style == "" {
		style = HighlightStyle
	}
	return fmt.Sprintf(`<span style="%s">%s</span>`, html.EscapeString(style), html.EscapeString(token))
}

func (m HTMLMarker) Plain(token string) string {
	return html.EscapeString(token)
}

// BracketMarker surrounds changed tokens with square brackets. Used when
// output is not a terminal.
type BracketMarker struct{}

func (BracketMarker) Mark(token string) string  { return "[" + token + "]" }
func (BracketMarker) Plain(token string) string { return token }

// MarkerFunc adapts a render function (such as lipgloss.Style.Render) into a
// Marker that leaves unchanged tokens untouched.
type MarkerFunc func(string) string

func (f MarkerFunc) Mark(token string) string  { return f(token) }
func (f MarkerFunc) Plain(token string) string { return token }
