package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"sparkai-backend/llm"
	"sparkai-backend/logging"
	"sparkai-backend/metrics"
	"sparkai-backend/models"
	"sparkai-backend/repository"
	"sparkai-backend/storage"

	"github.com/google/uuid"
)

const (
	// NoMatchAnswer is returned without a completion call when nothing was ranked
	NoMatchAnswer = "No relevant clauses found in any standard."

	// DefaultAuditLogLimit is the number of entries listed when no limit is given
	DefaultAuditLogLimit = 50

	// MaxQuestionLength is the longest accepted question, in characters
	MaxQuestionLength = 2000

	// DefaultCompletionTimeout bounds a completion call when none is configured
	DefaultCompletionTimeout = 60 * time.Second
)

var (
	ErrEmptyQuestion        = errors.New("question is required")
	ErrQuestionTooLong      = fmt.Errorf("question exceeds %d characters", MaxQuestionLength)
	ErrInvalidLimit         = errors.New("limit must not be negative")
	ErrArchiveNotConfigured = errors.New("archive storage not configured")
	errCompleterNotSet      = errors.New("completer not set")
	errAuditStoreNotSet     = errors.New("audit store not set")
)

// AnswerService runs the question answering pipeline and the audit log
// operations built on it
type AnswerService struct {
	corpus            *repository.Corpus
	glossary          *repository.Glossary
	ranker            *Ranker
	completer         llm.Completer
	auditStore        repository.AuditLogStore
	archive           storage.Storage
	logger            *slog.Logger
	now               func() time.Time
	newID             func() string
	completionTimeout time.Duration
}

// AnswerServiceOption is a functional option for AnswerService
type AnswerServiceOption func(*AnswerService)

// AnswerWithCorpus sets the clause corpus
func AnswerWithCorpus(corpus *repository.Corpus) AnswerServiceOption {
	return func(s *AnswerService) {
		s.corpus = corpus
	}
}

// AnswerWithGlossary sets the glossary used to normalize questions
func AnswerWithGlossary(glossary *repository.Glossary) AnswerServiceOption {
	return func(s *AnswerService) {
		s.glossary = glossary
	}
}

// AnswerWithRanker sets the ranker. It must rank the same corpus.
func AnswerWithRanker(ranker *Ranker) AnswerServiceOption {
	return func(s *AnswerService) {
		s.ranker = ranker
	}
}

// AnswerWithCompleter sets the completion client
func AnswerWithCompleter(completer llm.Completer) AnswerServiceOption {
	return func(s *AnswerService) {
		s.completer = completer
	}
}

// AnswerWithAuditStore sets the audit log store
func AnswerWithAuditStore(store repository.AuditLogStore) AnswerServiceOption {
	return func(s *AnswerService) {
		s.auditStore = store
	}
}

// AnswerWithArchive sets the storage audit log exports are written to
func AnswerWithArchive(archive storage.Storage) AnswerServiceOption {
	return func(s *AnswerService) {
		s.archive = archive
	}
}

// AnswerWithLogger sets the logger
func AnswerWithLogger(logger *slog.Logger) AnswerServiceOption {
	return func(s *AnswerService) {
		s.logger = logger
	}
}

// AnswerWithClock sets the clock used for audit timestamps
func AnswerWithClock(now func() time.Time) AnswerServiceOption {
	return func(s *AnswerService) {
		s.now = now
	}
}

// AnswerWithCompletionTimeout bounds each completion call
func AnswerWithCompletionTimeout(timeout time.Duration) AnswerServiceOption {
	return func(s *AnswerService) {
		s.completionTimeout = timeout
	}
}

// NewAnswerService creates a new answer service
func NewAnswerService(opts ...AnswerServiceOption) *AnswerService {
	s := &AnswerService{
		logger:            slog.Default(),
		now:               time.Now,
		newID:             uuid.NewString,
		completionTimeout: DefaultCompletionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.corpus == nil {
		s.corpus = repository.NewCorpus()
	}
	if s.ranker == nil {
		s.ranker = NewRanker(s.corpus, DefaultPerStandard, DefaultTopK)
	}
	return s
}

// AskRequest represents a question to answer
type AskRequest struct {
	Question string
}

// AskResult represents the answer to a question
type AskResult struct {
	Answer     string
	Confidence *float64
	AuditID    string
	Clauses    []models.Match
}

// Ask answers a question from the corpus and records the exchange in the audit log.
// A completion failure returns a *llm.UpstreamError and records nothing.
func (s *AnswerService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	start := time.Now()

	question := req.Question
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return nil, ErrQuestionTooLong
	}
	if s.auditStore == nil {
		return nil, errAuditStoreNotSet
	}

	normalized := Normalize(question, s.glossary)
	refs := ExtractClauseRefs(normalized)

	ranked, err := s.ranker.Rank(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to rank clauses: %w", err)
	}

	if len(ranked) == 0 {
		result, err := s.record(ctx, question, nil, NoMatchAnswer, 0, start)
		if err != nil {
			return nil, err
		}
		metrics.AskTotal.WithLabelValues("no_match").Inc()
		metrics.AskLatency.Observe(time.Since(start).Seconds())
		s.logger.InfoContext(ctx, "no clauses matched", "request_id", logging.RequestID(ctx))
		return result, nil
	}

	entries, confidence := Compose(refs, ranked, s.corpus)
	if explicit := len(entries) - len(ranked); explicit > 0 {
		metrics.ExplicitReferences.Add(float64(explicit))
	}

	answer, err := s.complete(ctx, BuildPrompt(FormatContext(entries), question))
	if err != nil {
		metrics.AskTotal.WithLabelValues("upstream_error").Inc()
		s.logger.ErrorContext(ctx, "completion failed",
			"request_id", logging.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}

	result, err := s.record(ctx, question, entries, answer, confidence, start)
	if err != nil {
		return nil, err
	}

	metrics.AskTotal.WithLabelValues("answered").Inc()
	metrics.AskLatency.Observe(time.Since(start).Seconds())
	metrics.Confidence.Observe(confidence)
	s.logger.InfoContext(ctx, "question answered",
		"request_id", logging.RequestID(ctx),
		"explicit_refs", len(refs),
		"context_entries", len(entries),
		"confidence", confidence,
		"audit_id", result.AuditID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// complete calls the completer under the completion timeout. Every failure is
// returned as a *llm.UpstreamError.
func (s *AnswerService) complete(ctx context.Context, prompt string) (string, error) {
	if s.completer == nil {
		return "", errCompleterNotSet
	}
	provider := s.completer.Provider()

	if s.completionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.completionTimeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := s.completer.Complete(ctx, prompt)
	metrics.CompletionLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CompletionErrors.WithLabelValues(provider).Inc()
		var upstream *llm.UpstreamError
		if !errors.As(err, &upstream) {
			err = &llm.UpstreamError{Provider: provider, Err: err}
		}
		return "", err
	}
	return answer, nil
}

// record appends the audit entry for an answered question
func (s *AnswerService) record(ctx context.Context, question string, entries []models.Match, answer string, confidence float64, start time.Time) (*AskResult, error) {
	clauses := make(models.AuditClauses, 0, len(entries))
	for _, e := range entries {
		clauses = append(clauses, models.AuditClause{
			Standard: e.Standard,
			Clause:   e.Clause,
			Score:    roundTo(e.Score, 3),
		})
	}

	latency := float64(time.Since(start)) / float64(time.Millisecond)
	entry := &models.AuditEntry{
		ID:         s.newID(),
		Timestamp:  s.now().UTC(),
		Question:   question,
		Clauses:    clauses,
		Answer:     answer,
		Confidence: &confidence,
		LatencyMS:  roundTo(latency, 2),
	}

	if err := s.auditStore.Append(ctx, entry); err != nil {
		metrics.AskTotal.WithLabelValues("audit_error").Inc()
		s.logger.ErrorContext(ctx, "failed to record audit entry",
			"request_id", logging.RequestID(ctx),
			"error", err,
		)
		return nil, fmt.Errorf("failed to record audit entry: %w", err)
	}

	return &AskResult{
		Answer:     answer,
		Confidence: entry.Confidence,
		AuditID:    entry.ID,
		Clauses:    entries,
	}, nil
}

// ListAuditLogsRequest represents a request to list audit entries
type ListAuditLogsRequest struct {
	Limit *int // Optional, defaults to DefaultAuditLogLimit
}

// ListAuditLogsResult represents the listed audit entries, newest first
type ListAuditLogsResult struct {
	Entries []*models.AuditEntry
}

// ListAuditLogs returns the most recent audit entries, newest first
func (s *AnswerService) ListAuditLogs(ctx context.Context, req ListAuditLogsRequest) (*ListAuditLogsResult, error) {
	if s.auditStore == nil {
		return nil, errAuditStoreNotSet
	}

	limit := DefaultAuditLogLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	entries, err := s.auditStore.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &ListAuditLogsResult{Entries: entries}, nil
}

// SetAuditFlagRequest represents a request to flag or unflag an audit entry
type SetAuditFlagRequest struct {
	ID      string
	Flagged *bool // Optional, defaults to true
}

// SetAuditFlagResult represents the updated audit entry
type SetAuditFlagResult struct {
	Entry *models.AuditEntry
}

// SetAuditFlag marks an audit entry for review. Setting the current value again
// is a no-op that returns the same entry. Unknown ids return
// repository.ErrAuditEntryNotFound.
func (s *AnswerService) SetAuditFlag(ctx context.Context, req SetAuditFlagRequest) (*SetAuditFlagResult, error) {
	if s.auditStore == nil {
		return nil, errAuditStoreNotSet
	}

	flagged := true
	if req.Flagged != nil {
		flagged = *req.Flagged
	}

	entry, err := s.auditStore.SetFlag(ctx, req.ID, flagged)
	if err != nil {
		return nil, err
	}

	metrics.AuditFlags.WithLabelValues(strconv.FormatBool(flagged)).Inc()
	s.logger.InfoContext(ctx, "audit entry flag updated",
		"request_id", logging.RequestID(ctx),
		"audit_id", entry.ID,
		"flagged", flagged,
	)
	return &SetAuditFlagResult{Entry: entry}, nil
}

// ExportAuditLogResult represents an archived audit log snapshot
type ExportAuditLogResult struct {
	StoragePath string
	Entries     int
}

// ExportAuditLog writes the whole audit log, oldest first, to the archive storage
func (s *AnswerService) ExportAuditLog(ctx context.Context) (*ExportAuditLogResult, error) {
	if s.auditStore == nil {
		return nil, errAuditStoreNotSet
	}
	if s.archive == nil {
		return nil, ErrArchiveNotConfigured
	}

	entries, err := s.auditStore.All(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit log: %w", err)
	}

	storagePath, err := s.archive.Upload(ctx, uuid.New(), "audit_log.json", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to archive audit log: %w", err)
	}

	s.logger.InfoContext(ctx, "audit log exported",
		"request_id", logging.RequestID(ctx),
		"storage_path", storagePath,
		"entries", len(entries),
	)
	return &ExportAuditLogResult{StoragePath: storagePath, Entries: len(entries)}, nil
}

// OpenArchive opens an archived audit log snapshot or preserved corrupt log.
// The caller closes the reader.
func (s *AnswerService) OpenArchive(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, ErrArchiveNotConfigured
	}
	return s.archive.Download(ctx, storagePath)
}

// DeleteArchive removes an archived snapshot or preserved corrupt log.
// Deleting a path that does not exist is not an error.
func (s *AnswerService) DeleteArchive(ctx context.Context, storagePath string) error {
	if s.archive == nil {
		return ErrArchiveNotConfigured
	}
	if err := s.archive.Delete(ctx, storagePath); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "archive deleted",
		"request_id", logging.RequestID(ctx),
		"storage_path", storagePath,
	)
	return nil
}

// ListStandards describes the loaded standards
func (s *AnswerService) ListStandards() []models.StandardSummary {
	return s.corpus.Summaries()
}

// roundTo rounds v to the given number of decimal places
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
