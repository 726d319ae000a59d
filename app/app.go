// Package app assembles the answer service from configuration. It is shared
// by the HTTP server and the command line tool.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"sparkai-backend/config"
	"sparkai-backend/llm"
	"sparkai-backend/repository"
	"sparkai-backend/service"
	"sparkai-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the wired service and the resources it owns
type App struct {
	Service *service.AnswerService
	Corpus  *repository.Corpus

	closers []func()
}

// Build loads the corpus and glossary, opens the audit store, archive storage
// and completion client, and wires them into an AnswerService. Corpus and
// glossary load errors are returned as *repository.LoadError.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{}

	corpus, err := repository.LoadCorpus(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Info("corpus loaded",
		"dir", cfg.DataDir,
		"standards", len(corpus.Standards()),
		"clauses", corpus.ClauseCount(),
	)

	glossary, err := repository.LoadGlossary(cfg.GlossaryPath)
	if err != nil {
		return nil, err
	}
	logger.Info("glossary loaded", "path", cfg.GlossaryPath, "terms", glossary.Len())

	archive, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive storage: %w", err)
	}
	if archive != nil {
		logger.Info("archive storage initialized", "type", cfg.Storage.Type)
	}

	auditStore, err := a.openAuditStore(ctx, cfg, archive, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	completer, err := llm.NewCompleter(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	if c, ok := completer.(io.Closer); ok {
		a.closers = append(a.closers, func() { c.Close() })
	}
	logger.Info("completion client initialized", "provider", completer.Provider(), "model", cfg.LLM.Model)

	a.Corpus = corpus
	a.Service = service.NewAnswerService(
		service.AnswerWithCorpus(corpus),
		service.AnswerWithGlossary(glossary),
		service.AnswerWithRanker(service.NewRanker(corpus, cfg.RankPerStandard, cfg.RankTopK)),
		service.AnswerWithCompleter(completer),
		service.AnswerWithAuditStore(auditStore),
		service.AnswerWithArchive(archive),
		service.AnswerWithLogger(logger),
		service.AnswerWithCompletionTimeout(cfg.LLMTimeout),
	)
	return a, nil
}

func (a *App) openAuditStore(ctx context.Context, cfg *config.Config, archive storage.Storage, logger *slog.Logger) (repository.AuditLogStore, error) {
	switch cfg.AuditBackend {
	case config.AuditBackendPostgres:
		pool, err := initPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		repo := repository.NewPostgresAuditLogRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		logger.Info("postgres audit log ready")
		return repo, nil

	default:
		repo, err := repository.NewFileAuditLogRepository(cfg.AuditLogPath,
			repository.WithArchive(archive),
			repository.WithAuditLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		logger.Info("file audit log ready", "path", repo.Path())
		return repo, nil
	}
}

// Close releases the resources opened by Build, in reverse order
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
