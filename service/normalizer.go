package service

import (
	"strings"

	"sparkai-backend/repository"
	"sparkai-backend/textutil"
)

// Normalize lower-cases a question and rewrites informal terms to their
// canonical form. Terms are applied longest first; each replacement sees the
// output of the previous ones.
func Normalize(question string, glossary *repository.Glossary) string {
	normalized := textutil.Fold(question)
	for _, term := range glossary.Terms() {
		normalized = strings.ReplaceAll(normalized, term.Term, term.Canonical)
	}
	return normalized
}
