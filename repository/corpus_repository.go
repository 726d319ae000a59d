package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sparkai-backend/models"
)

// Clause is one numbered provision of a standard
type Clause struct {
	ID   string
	Text string
}

// Standard holds the clauses of one regulatory document in document order
type Standard struct {
	name    string
	clauses []Clause
	index   map[string]int
}

// NewStandard builds a standard from clauses in order.
// A repeated clause id keeps its first position and takes the later text.
func NewStandard(name string, clauses ...Clause) *Standard {
	s := &Standard{
		name:    name,
		clauses: make([]Clause, 0, len(clauses)),
		index:   make(map[string]int, len(clauses)),
	}
	for _, c := range clauses {
		if i, ok := s.index[c.ID]; ok {
			s.clauses[i].Text = c.Text
			continue
		}
		s.index[c.ID] = len(s.clauses)
		s.clauses = append(s.clauses, c)
	}
	return s
}

// Name returns the standard name
func (s *Standard) Name() string {
	return s.name
}

// Clauses returns the clauses in document order. The slice must not be modified.
func (s *Standard) Clauses() []Clause {
	return s.clauses
}

// Lookup returns the text of a clause
func (s *Standard) Lookup(clauseID string) (string, bool) {
	i, ok := s.index[clauseID]
	if !ok {
		return "", false
	}
	return s.clauses[i].Text, true
}

// Corpus is the immutable set of loaded standards. All methods are safe for
// concurrent use because nothing mutates a Corpus after construction.
type Corpus struct {
	standards []*Standard
	byName    map[string]*Standard
}

// NewCorpus builds a corpus from standards in the given order.
// A later standard with the same name replaces the earlier one.
func NewCorpus(standards ...*Standard) *Corpus {
	c := &Corpus{
		standards: make([]*Standard, 0, len(standards)),
		byName:    make(map[string]*Standard, len(standards)),
	}
	for _, s := range standards {
		if _, ok := c.byName[s.name]; ok {
			for i := range c.standards {
				if c.standards[i].name == s.name {
					c.standards[i] = s
				}
			}
		} else {
			c.standards = append(c.standards, s)
		}
		c.byName[s.name] = s
	}
	return c
}

// LoadCorpus reads every .json, .yaml and .yml document in dir as one standard,
// named after the file without its extension. Any unreadable or malformed
// document fails the whole load.
func LoadCorpus(dir string) (*Corpus, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}

	// os.ReadDir sorts by file name, which fixes the standard order
	standards := make([]*Standard, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !isDocument(f.Name()) {
			continue
		}

		path := filepath.Join(dir, f.Name())
		standard, err := loadStandard(path)
		if err != nil {
			return nil, err
		}
		standards = append(standards, standard)
	}

	return NewCorpus(standards...), nil
}

func loadStandard(path string) (*Standard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	entries, err := decodeMapping(path, data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	clauses := make([]Clause, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.key) == "" {
			return nil, &LoadError{Path: path, Err: errors.New("empty clause id")}
		}
		clauses = append(clauses, Clause{ID: e.key, Text: e.value})
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("cannot derive standard name")}
	}
	return NewStandard(name, clauses...), nil
}

// Standards returns the standards in load order. The slice must not be modified.
func (c *Corpus) Standards() []*Standard {
	return c.standards
}

// Standard returns a standard by name
func (c *Corpus) Standard(name string) (*Standard, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Lookup returns the text of a clause in a standard
func (c *Corpus) Lookup(standard, clauseID string) (string, bool) {
	s, ok := c.byName[standard]
	if !ok {
		return "", false
	}
	return s.Lookup(clauseID)
}

// ClauseCount returns the number of clauses across all standards
func (c *Corpus) ClauseCount() int {
	n := 0
	for _, s := range c.standards {
		n += len(s.clauses)
	}
	return n
}

// Summaries describes each loaded standard
func (c *Corpus) Summaries() []models.StandardSummary {
	out := make([]models.StandardSummary, 0, len(c.standards))
	for _, s := range c.standards {
		out = append(out, models.StandardSummary{Name: s.name, ClauseCount: len(s.clauses)})
	}
	return out
}
