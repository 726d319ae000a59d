package repository

import (
	"errors"
	"os"
	"sort"
	"unicode/utf8"

	"sparkai-backend/textutil"
)

// GlossaryTerm maps an informal term to its canonical form
type GlossaryTerm struct {
	Term      string
	Canonical string
}

// Glossary is an immutable list of term substitutions in application order:
// longest term first, then lexicographic. Terms are case-folded because
// they are matched against a case-folded question.
type Glossary struct {
	terms []GlossaryTerm
}

var errEmptyTerm = errors.New("glossary term must not be empty")

// NewGlossary builds a glossary from a term mapping
func NewGlossary(terms map[string]string) (*Glossary, error) {
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, entry{key: k, value: terms[k]})
	}
	return newGlossary(entries)
}

// newGlossary applies entries in order so that a later term colliding with an
// earlier one after folding wins
func newGlossary(entries []entry) (*Glossary, error) {
	folded := make(map[string]string, len(entries))
	for _, e := range entries {
		term := textutil.Fold(e.key)
		if term == "" {
			return nil, errEmptyTerm
		}
		folded[term] = e.value
	}

	terms := make([]GlossaryTerm, 0, len(folded))
	for term, canonical := range folded {
		terms = append(terms, GlossaryTerm{Term: term, Canonical: canonical})
	}
	sort.Slice(terms, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(terms[i].Term), utf8.RuneCountInString(terms[j].Term)
		if li != lj {
			return li > lj
		}
		return terms[i].Term < terms[j].Term
	})

	return &Glossary{terms: terms}, nil
}

// LoadGlossary reads a glossary document. A missing file yields an empty glossary.
func LoadGlossary(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Glossary{}, nil
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	entries, err := decodeMapping(path, data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	g, err := newGlossary(entries)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return g, nil
}

// Terms returns the substitutions in application order. The slice must not be modified.
func (g *Glossary) Terms() []GlossaryTerm {
	if g == nil {
		return nil
	}
	return g.terms
}

// Len returns the number of terms
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.terms)
}
