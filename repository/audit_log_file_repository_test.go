package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sparkai-backend/models"
	"sparkai-backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(i int) *models.AuditEntry {
	confidence := 0.5
	return &models.AuditEntry{
		ID:         fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
		Timestamp:  time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		Question:   fmt.Sprintf("question %d", i),
		Clauses:    models.AuditClauses{{Standard: "AS3000", Clause: "2.5.3", Score: 1}},
		Answer:     "answer",
		Confidence: &confidence,
		LatencyMS:  12.34,
	}
}

func newFileRepo(t *testing.T, opts ...FileAuditLogOption) *FileAuditLogRepository {
	t.Helper()
	repo, err := NewFileAuditLogRepository(filepath.Join(t.TempDir(), "logs", "audit_log.json"), opts...)
	require.NoError(t, err)
	return repo
}

func TestFileAuditLog_AppendThenListNewestFirst(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Append(ctx, newEntry(i)))
	}

	entries, err := repo.List(ctx, 50)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].Timestamp.After(entries[i].Timestamp))
	}
	assert.Equal(t, "question 5", entries[0].Question)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "question 5", limited[0].Question)
	assert.Equal(t, "question 4", limited[1].Question)

	none, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "question 1", all[0].Question)
}

func TestFileAuditLog_ListWithoutFile(t *testing.T) {
	repo := newFileRepo(t)

	entries, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = os.Stat(repo.Path())
	assert.True(t, os.IsNotExist(err), "listing must not create the file")
}

func TestFileAuditLog_PersistedFormat(t *testing.T) {
	repo := newFileRepo(t)
	require.NoError(t, repo.Append(context.Background(), newEntry(1)))

	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\""), "pretty-printed JSON array")

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	for _, field := range []string{"id", "timestamp", "question", "clauses", "answer", "confidence", "latency_ms", "flagged"} {
		assert.Contains(t, raw[0], field)
	}
	assert.Equal(t, "2026-01-01T00:00:01Z", raw[0]["timestamp"])
}

func TestFileAuditLog_SetFlag(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, newEntry(1)))
	require.NoError(t, repo.Append(ctx, newEntry(2)))

	id := newEntry(1).ID
	entry, err := repo.SetFlag(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, entry.Flagged)

	// Idempotent
	entry, err = repo.SetFlag(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, entry.Flagged)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Flagged)
	assert.False(t, all[1].Flagged)
	assert.Equal(t, "question 1", all[0].Question, "order unchanged")

	entry, err = repo.SetFlag(ctx, id, false)
	require.NoError(t, err)
	assert.False(t, entry.Flagged)
}

func TestFileAuditLog_SetFlagUnknownID(t *testing.T) {
	repo := newFileRepo(t)
	require.NoError(t, repo.Append(context.Background(), newEntry(1)))

	_, err := repo.SetFlag(context.Background(), "nonexistent-id", true)
	assert.ErrorIs(t, err, ErrAuditEntryNotFound)
}

func TestFileAuditLog_ConcurrentAppendsAreNotLost(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, newEntry(0)))

	const writers = 40
	var wg sync.WaitGroup
	for i := 1; i <= writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.Append(ctx, newEntry(i)))
		}(i)
	}
	// Flag updates racing with appends
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := repo.SetFlag(ctx, newEntry(0).ID, true)
		assert.NoError(t, err)
	}()
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.List(ctx, 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, writers+1)
	assert.True(t, all[0].Flagged)
}

func TestFileAuditLog_CorruptFileIsPreservedAndTreatedAsEmpty(t *testing.T) {
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	repo := newFileRepo(t, WithArchive(archive))
	ctx := context.Background()
	require.NoError(t, os.WriteFile(repo.Path(), []byte(`[{"id": "broken"`), 0644))

	entries, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Reads leave the corrupt file in place
	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.Equal(t, `[{"id": "broken"`, string(data))

	require.NoError(t, repo.Append(ctx, newEntry(1)))

	entries, err = repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	preserved, err := filepath.Glob(repo.Path() + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, preserved, 1)
	data, err = os.ReadFile(preserved[0])
	require.NoError(t, err)
	assert.Equal(t, `[{"id": "broken"`, string(data))
}

func TestFileAuditLog_NullEntryIsCorrupt(t *testing.T) {
	for name, content := range map[string]string{
		"null entry": `[null]`,
		"missing id": `[{"question": "q", "answer": "a"}]`,
		"mixed":      `[{"id": "00000000-0000-0000-0000-000000000001"}, null]`,
	} {
		t.Run(name, func(t *testing.T) {
			repo := newFileRepo(t)
			ctx := context.Background()
			require.NoError(t, os.WriteFile(repo.Path(), []byte(content), 0644))

			entries, err := repo.List(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, entries)

			_, err = repo.SetFlag(ctx, "00000000-0000-0000-0000-000000000001", true)
			assert.ErrorIs(t, err, ErrAuditEntryNotFound)

			preserved, err := filepath.Glob(repo.Path() + ".corrupt-*")
			require.NoError(t, err)
			require.Len(t, preserved, 1)

			require.NoError(t, repo.Append(ctx, newEntry(2)))
			_, err = repo.SetFlag(ctx, newEntry(2).ID, true)
			require.NoError(t, err)

			entries, err = repo.List(ctx, 10)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.True(t, entries[0].Flagged)
		})
	}
}

func TestFileAuditLog_BlankFileIsEmpty(t *testing.T) {
	repo := newFileRepo(t)
	require.NoError(t, os.WriteFile(repo.Path(), []byte("  \n"), 0644))

	require.NoError(t, repo.Append(context.Background(), newEntry(1)))

	preserved, err := filepath.Glob(repo.Path() + ".corrupt-*")
	require.NoError(t, err)
	assert.Empty(t, preserved)
}
