// Package textutil holds the text folding shared by glossary loading and ranking.
package textutil

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lower-cases s using Unicode case mapping rules.
// A Caser is stateful, so one is created per call.
func Fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Chars splits s into one string per rune, the element form used by
// the sequence matcher.
func Chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
