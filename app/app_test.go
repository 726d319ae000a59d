package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sparkai-backend/config"
	"sparkai-backend/llm"
	"sparkai-backend/repository"
	"sparkai-backend/service"
	"sparkai-backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "AS3000.json"), []byte(`{"2.5.3": "Socket outlets shall..."}`), 0644))

	return &config.Config{
		Port:            "8080",
		DataDir:         dataDir,
		GlossaryPath:    filepath.Join(dir, "glossary.json"),
		AuditBackend:    config.AuditBackendFile,
		AuditLogPath:    filepath.Join(dir, "logs", "audit_log.json"),
		LLM:             llm.Config{Provider: llm.ProviderOpenAI, APIKey: "test"},
		LLMTimeout:      time.Second,
		RankPerStandard: 3,
		RankTopK:        5,
		Storage:         storage.StorageConfig{Type: storage.StorageTypeLocal, LocalPath: filepath.Join(dir, "archive")},
		RateLimitRPS:    1,
		RateLimitBurst:  1,
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuild(t *testing.T) {
	cfg := testConfig(t)

	a, err := Build(context.Background(), cfg, discard)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 1, a.Corpus.ClauseCount())
	assert.Len(t, a.Service.ListStandards(), 1)

	// Archive storage is wired through to export
	result, err := a.Service.ExportAuditLog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Entries)
}

func TestBuild_MalformedCorpusFails(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "AS3008.json"), []byte(`not json`), 0644))

	_, err := Build(context.Background(), cfg, discard)

	var loadErr *repository.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Path, "AS3008.json")
}

func TestBuild_NoArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = storage.StorageTypeNone

	a, err := Build(context.Background(), cfg, discard)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Service.ExportAuditLog(context.Background())
	assert.ErrorIs(t, err, service.ErrArchiveNotConfigured)
}
