package service

import (
	"strings"
	"testing"

	"sparkai-backend/models"
	"sparkai-backend/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_ExplicitHitsFirst(t *testing.T) {
	corpus := repository.NewCorpus(repository.NewStandard("AS3000",
		repository.Clause{ID: "2.5.3", Text: "Socket outlets shall..."},
	))
	ranked := []models.Match{{Standard: "AS3000", Clause: "2.5.3", Text: "Socket outlets shall...", Score: 0.41234}}

	entries, confidence := Compose([]string{"2.5.3"}, ranked, corpus)

	require.Len(t, entries, 2)
	assert.Equal(t, models.Match{Standard: "AS3000", Clause: "2.5.3", Text: "Socket outlets shall...", Score: 1.0}, entries[0])
	// Ranked duplicate of an explicit hit is kept
	assert.Equal(t, ranked[0], entries[1])
	assert.Equal(t, 0.412, confidence)
}

func TestCompose_ReferenceInEveryStandard(t *testing.T) {
	corpus := repository.NewCorpus(
		repository.NewStandard("AS3000", repository.Clause{ID: "1.1", Text: "scope"}),
		repository.NewStandard("AS3008", repository.Clause{ID: "1.1", Text: "scope of cable selection"}),
		repository.NewStandard("AS3017", repository.Clause{ID: "2.2", Text: "testing"}),
	)
	ranked := []models.Match{{Standard: "AS3017", Clause: "2.2", Text: "testing", Score: 0.3}}

	entries, _ := Compose([]string{"1.1", "9.9", "1.1"}, ranked, corpus)

	require.Len(t, entries, 3)
	assert.Equal(t, "AS3000", entries[0].Standard)
	assert.Equal(t, "AS3008", entries[1].Standard)
	assert.Equal(t, 1.0, entries[0].Score)
	assert.Equal(t, 1.0, entries[1].Score)
	assert.Equal(t, "AS3017", entries[2].Standard)
}

func TestCompose_NoRankedMatches(t *testing.T) {
	entries, confidence := Compose(nil, nil, repository.NewCorpus())
	assert.Empty(t, entries)
	assert.Equal(t, 0.0, confidence)
}

func TestFormatContext(t *testing.T) {
	got := FormatContext([]models.Match{
		{Standard: "AS3000", Clause: "2.5.3", Text: "Socket outlets shall..."},
		{Standard: "AS3008", Clause: "3.4", Text: "Current-carrying capacity..."},
	})

	assert.Equal(t, "AS3000 Clause 2.5.3: Socket outlets shall...\n\nAS3008 Clause 3.4: Current-carrying capacity...", got)
	assert.Empty(t, FormatContext(nil))
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("AS3000 Clause 2.5.3: Socket outlets shall...", "What about my GPO?")

	assert.True(t, strings.HasPrefix(prompt, "You are SparkAI"))
	assert.Contains(t, prompt, "citing the clause number and document")
	assert.Contains(t, prompt, "\n\nReference clauses:\nAS3000 Clause 2.5.3: Socket outlets shall...")
	assert.True(t, strings.HasSuffix(prompt, "\n\nQuestion: What about my GPO?"))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 0.667, roundTo(2.0/3.0, 3))
	assert.Equal(t, 12.35, roundTo(12.3456, 2))
	assert.Equal(t, 1.0, roundTo(1.0, 3))
}
