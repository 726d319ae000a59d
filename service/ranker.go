package service

import (
	"context"
	"runtime"
	"sort"
	"time"

	"sparkai-backend/metrics"
	"sparkai-backend/models"
	"sparkai-backend/repository"
	"sparkai-backend/textutil"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPerStandard is how many candidates each standard contributes
	DefaultPerStandard = 3
	// DefaultTopK is how many candidates survive the global re-rank
	DefaultTopK = 5
)

// Ranker scores every clause of a corpus against a question.
// It is safe for concurrent use.
type Ranker struct {
	corpus      *repository.Corpus
	perStandard int
	topK        int

	// folded[i][j] is the case-folded text of clause j of standard i, one element per rune
	folded [][][]string
}

// NewRanker prepares a ranker over corpus. Non-positive limits fall back to defaults.
func NewRanker(corpus *repository.Corpus, perStandard, topK int) *Ranker {
	if perStandard <= 0 {
		perStandard = DefaultPerStandard
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	standards := corpus.Standards()
	folded := make([][][]string, len(standards))
	for i, std := range standards {
		clauses := std.Clauses()
		folded[i] = make([][]string, len(clauses))
		for j, c := range clauses {
			folded[i][j] = textutil.Chars(textutil.Fold(c.Text))
		}
	}

	return &Ranker{
		corpus:      corpus,
		perStandard: perStandard,
		topK:        topK,
		folded:      folded,
	}
}

// Rank returns the best matches for question, highest score first.
// Each standard keeps its top perStandard clauses, then the pool is cut to topK.
// Equal scores keep standard order, then document order.
func (r *Ranker) Rank(ctx context.Context, question string) ([]models.Match, error) {
	start := time.Now()
	defer func() {
		metrics.RankLatency.Observe(time.Since(start).Seconds())
	}()

	q := textutil.Chars(textutil.Fold(question))
	standards := r.corpus.Standards()
	perStandard := make([][]models.Match, len(standards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, std := range standards {
		g.Go(func() error {
			matches, err := r.rankStandard(gctx, q, std, r.folded[i])
			if err != nil {
				return err
			}
			perStandard[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pool := make([]models.Match, 0, len(standards)*r.perStandard)
	for _, matches := range perStandard {
		pool = append(pool, matches...)
	}
	sortByScore(pool)
	if len(pool) > r.topK {
		pool = pool[:r.topK]
	}
	return pool, nil
}

func (r *Ranker) rankStandard(ctx context.Context, question []string, std *repository.Standard, folded [][]string) ([]models.Match, error) {
	clauses := std.Clauses()
	scored := make([]models.Match, 0, len(clauses))
	for j, c := range clauses {
		if j%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		scored = append(scored, models.Match{
			Standard: std.Name(),
			Clause:   c.ID,
			Text:     c.Text,
			Score:    difflib.NewMatcher(question, folded[j]).Ratio(),
		})
	}

	sortByScore(scored)
	if len(scored) > r.perStandard {
		scored = scored[:r.perStandard]
	}
	return scored, nil
}

func sortByScore(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}
