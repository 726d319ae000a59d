package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadCorpus_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AS3000.json", `{"2.5.3": "Socket outlets shall be installed.", "1.1": "Scope."}`)
	writeFile(t, dir, "QECM.yaml", "4.1: Metering shall be provided.\n\"4.10\": Service fuses.\n")
	writeFile(t, dir, "README.md", "not a standard")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "drafts"), 0755))

	corpus, err := LoadCorpus(dir)
	require.NoError(t, err)

	standards := corpus.Standards()
	require.Len(t, standards, 2)
	assert.Equal(t, "AS3000", standards[0].Name())
	assert.Equal(t, "QECM", standards[1].Name())

	// Document order, not sorted order
	clauses := standards[0].Clauses()
	assert.Equal(t, "2.5.3", clauses[0].ID)
	assert.Equal(t, "1.1", clauses[1].ID)

	text, ok := corpus.Lookup("QECM", "4.10")
	assert.True(t, ok)
	assert.Equal(t, "Service fuses.", text)

	// YAML keys keep their literal form
	_, ok = corpus.Lookup("QECM", "4.1")
	assert.True(t, ok)

	_, ok = corpus.Lookup("AS3000", "9.9")
	assert.False(t, ok)
	assert.Equal(t, 4, corpus.ClauseCount())
}

func TestLoadCorpus_EmptyDirectory(t *testing.T) {
	corpus, err := LoadCorpus(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, corpus.Standards())
	assert.Equal(t, 0, corpus.ClauseCount())
}

func TestLoadCorpus_MalformedDocumentFailsWholeLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"invalid json", "bad.json", `{"1.1": "unterminated`},
		{"array", "bad.json", `["1.1"]`},
		{"number value", "bad.json", `{"1.1": 3}`},
		{"null value", "bad.json", `{"1.1": null}`},
		{"nested value", "bad.json", `{"1.1": {"text": "x"}}`},
		{"trailing data", "bad.json", `{"1.1": "x"} {}`},
		{"empty json", "bad.json", ``},
		{"yaml list", "bad.yaml", "- 1.1\n- 1.2\n"},
		{"yaml nested", "bad.yml", "1.1:\n  text: x\n"},
		{"empty clause id", "bad.json", `{" ": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "AS3000.json", `{"1.1": "fine"}`)
			writeFile(t, dir, tt.file, tt.content)

			corpus, err := LoadCorpus(dir)
			assert.Nil(t, corpus)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "want *LoadError, got %v", err)
			assert.Equal(t, filepath.Join(dir, tt.file), loadErr.Path)
		})
	}
}

func TestLoadCorpus_MissingDirectory(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "nope"))

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestNewStandard_DuplicateKeepsFirstPosition(t *testing.T) {
	s := NewStandard("AS3000",
		Clause{ID: "1.1", Text: "old"},
		Clause{ID: "1.2", Text: "other"},
		Clause{ID: "1.1", Text: "new"},
	)

	require.Len(t, s.Clauses(), 2)
	assert.Equal(t, Clause{ID: "1.1", Text: "new"}, s.Clauses()[0])
}

func TestCorpus_Summaries(t *testing.T) {
	corpus := NewCorpus(
		NewStandard("AS3000", Clause{ID: "1.1", Text: "a"}, Clause{ID: "1.2", Text: "b"}),
		NewStandard("AS3017", Clause{ID: "2.1", Text: "c"}),
	)

	summaries := corpus.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, "AS3000", summaries[0].Name)
	assert.Equal(t, 2, summaries[0].ClauseCount)
	assert.Equal(t, 1, summaries[1].ClauseCount)
}
