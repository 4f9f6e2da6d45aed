// Package diff marks the tokens that differ between an original cell value
// and its proposed correction.
//
// The comparison is a set-membership check over whitespace-delimited tokens:
// a token is unchanged when its value occurs anywhere in the other text. Order
// and repetition are ignored, so "the cat the dog" against "the dog" marks
// nothing on the old side. Cell values are short and the reviewer only needs
// to see which words were introduced or dropped.
package diff

import "strings"

// Token is a single whitespace-delimited word and whether it differs from
// the other side of the comparison.
type Token struct {
	Text    string
	Changed bool
}

// Result holds the marked tokens for both sides of a comparison.
type Result struct {
	Old []Token
	New []Token
}

// Tokenize splits text into maximal runs of non-whitespace characters.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Highlight compares oldText and newText token by token. It is pure and
// deterministic.
func Highlight(oldText, newText string) Result {
	oldTokens := Tokenize(oldText)
	newTokens := Tokenize(newText)

	return Result{
		Old: mark(oldTokens, vocabulary(newTokens)),
		New: mark(newTokens, vocabulary(oldTokens)),
	}
}

func vocabulary(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func mark(tokens []string, other map[string]struct{}) []Token {
	out := make([]Token, len(tokens))
	for i, tok := range tokens {
		_, common := other[tok]
		out[i] = Token{Text: tok, Changed: !common}
	}
	return out
}

// HasChanges reports whether any token on either side is marked changed.
func (r Result) HasChanges() bool {
	return r.ChangedCount() > 0
}

// ChangedCount returns the number of changed tokens across both sides.
func (r Result) ChangedCount() int {
	n := 0
	for _, t := range r.Old {
		if t.Changed {
			n++
		}
	}
	for _, t := range r.New {
		if t.Changed {
			n++
		}
	}
	return n
}

// Render formats both sides with m, joining tokens with single spaces.
func (r Result) Render(m Marker) (oldMarked, newMarked string) {
	return renderTokens(r.Old, m), renderTokens(r.New, m)
}

func renderTokens(tokens []Token, m Marker) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		if t.Changed {
			parts[i] = m.Mark(t.Text)
		} else {
			parts[i] = m.Plain(t.Text)
		}
	}
	return strings.Join(parts, " ")
}
