package service

import (
	"fmt"
	"strings"

	"sparkai-backend/models"
	"sparkai-backend/repository"
)

// ExplicitScore is the score given to a clause cited by id in the question
const ExplicitScore = 1.0

// Compose builds the context entries for a question: clauses cited by id come
// first with ExplicitScore, followed by the ranked matches. A ranked match that
// repeats a cited clause is kept. Confidence is the top ranked score rounded
// to three decimals, or 0 when nothing was ranked.
func Compose(explicitIDs []string, ranked []models.Match, corpus *repository.Corpus) ([]models.Match, float64) {
	type key struct{ standard, clause string }
	seen := make(map[key]struct{})

	entries := make([]models.Match, 0, len(explicitIDs)+len(ranked))
	for _, id := range explicitIDs {
		for _, std := range corpus.Standards() {
			text, ok := std.Lookup(id)
			if !ok {
				continue
			}
			k := key{std.Name(), id}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			entries = append(entries, models.Match{
				Standard: std.Name(),
				Clause:   id,
				Text:     text,
				Score:    ExplicitScore,
			})
		}
	}
	entries = append(entries, ranked...)

	confidence := 0.0
	if len(ranked) > 0 {
		confidence = roundTo(ranked[0].Score, 3)
	}
	return entries, confidence
}

// FormatContext renders entries as the reference block of a prompt
func FormatContext(entries []models.Match) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = fmt.Sprintf("%s Clause %s: %s", e.Standard, e.Clause, e.Text)
	}
	return strings.Join(blocks, "\n\n")
}
