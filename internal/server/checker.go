package server

import (
	"context"
	"strings"
	"unicode"
)

// Checker proposes corrected text for every cell of a sheet. The returned
// rows must have the same shape as the input.
type Checker interface {
	Check(ctx context.Context, rows [][]string) ([][]string, error)
}

// ReplacementChecker rewrites whole whitespace-delimited tokens using a
// fixed table. Whitespace between tokens is preserved.
type ReplacementChecker struct {
	replacements map[string]string
}

var _ Checker = (*ReplacementChecker)(nil)

// NewReplacementChecker creates a checker for the given token table.
func NewReplacementChecker(replacements map[string]string) *ReplacementChecker {
	m := make(map[string]string, len(replacements))
	for from, to := range replacements {
		m[from] = to
	}
	return &ReplacementChecker{replacements: m}
}

func (c *ReplacementChecker) Check(ctx context.Context, rows [][]string) ([][]string, error) {
	out := make([][]string, len(rows))
	for r, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[r] = make([]string, len(row))
		for col, v := range row {
			out[r][col] = c.Correct(v)
		}
	}
	return out, nil
}

// Correct applies the replacement table to a single value.
func (c *ReplacementChecker) Correct(text string) string {
	if len(c.replacements) == 0 || text == "" {
		return text
	}

	var (
		b     strings.Builder
		start = -1
	)
	flush := func(end int) {
		tok := text[start:end]
		if to, ok := c.replacements[tok]; ok {
			tok = to
		}
		b.WriteString(tok)
		start = -1
	}

	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				flush(i)
			}
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		flush(len(text))
	}
	return b.String()
}
