package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sparkai-backend/metrics"
	"sparkai-backend/models"
	"sparkai-backend/storage"

	"github.com/google/uuid"
)

// FileAuditLogRepository stores the audit log as one pretty-printed JSON array.
// Every mutation rewrites the whole file under the write lock; reads share the
// read lock.
type FileAuditLogRepository struct {
	path    string
	archive storage.Storage
	logger  *slog.Logger
	now     func() time.Time

	mu sync.RWMutex
}

// FileAuditLogOption is a functional option for FileAuditLogRepository
type FileAuditLogOption func(*FileAuditLogRepository)

// WithArchive uploads preserved corrupt logs to an archive storage
func WithArchive(archive storage.Storage) FileAuditLogOption {
	return func(r *FileAuditLogRepository) {
		r.archive = archive
	}
}

// WithAuditLogger sets the logger used for corruption reports
func WithAuditLogger(logger *slog.Logger) FileAuditLogOption {
	return func(r *FileAuditLogRepository) {
		r.logger = logger
	}
}

// NewFileAuditLogRepository creates a file-backed audit log at path.
// The parent directory is created; the file itself is created on first append.
func NewFileAuditLogRepository(path string, opts ...FileAuditLogOption) (*FileAuditLogRepository, error) {
	if path == "" {
		return nil, errors.New("audit log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	r := &FileAuditLogRepository{
		path:   path,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Path returns the backing file path
func (r *FileAuditLogRepository) Path() string {
	return r.path
}

// Append adds an entry to the end of the log
func (r *FileAuditLogRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.loadForUpdate(ctx)
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	return r.write(entries)
}

// List returns up to limit entries, newest first
func (r *FileAuditLogRepository) List(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := r.loadForRead(ctx)
	if err != nil {
		return nil, err
	}
	return newestFirst(entries, limit), nil
}

// All returns every entry in append order
func (r *FileAuditLogRepository) All(ctx context.Context) ([]*models.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loadForRead(ctx)
}

// SetFlag updates the flagged field of one entry and rewrites the log
func (r *FileAuditLogRepository) SetFlag(ctx context.Context, id string, flagged bool) (*models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.loadForUpdate(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.ID != id {
			continue
		}
		e.Flagged = flagged
		if err := r.write(entries); err != nil {
			return nil, err
		}
		return e, nil
	}

	return nil, ErrAuditEntryNotFound
}

// read decodes the log file. A missing or blank file is an empty log; a file
// that does not parse, or holds an entry without an id, is a *CorruptLogError.
func (r *FileAuditLogRepository) read() ([]*models.AuditEntry, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*models.AuditEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*models.AuditEntry{}, nil
	}

	var entries []*models.AuditEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &CorruptLogError{Path: r.path, Err: err}
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}
	for i, e := range entries {
		if e == nil || e.ID == "" {
			return nil, &CorruptLogError{Path: r.path, Err: fmt.Errorf("entry %d has no id", i)}
		}
	}
	return entries, nil
}

// loadForRead treats a corrupt log as empty. The file is left in place so the
// next mutation can preserve it.
func (r *FileAuditLogRepository) loadForRead(ctx context.Context) ([]*models.AuditEntry, error) {
	entries, err := r.read()

	var corrupt *CorruptLogError
	if errors.As(err, &corrupt) {
		r.reportCorruption(ctx, corrupt)
		return []*models.AuditEntry{}, nil
	}
	return entries, err
}

// loadForUpdate treats a corrupt log as empty after moving it aside, so the
// following write never destroys the unreadable history. Caller holds the write lock.
func (r *FileAuditLogRepository) loadForUpdate(ctx context.Context) ([]*models.AuditEntry, error) {
	entries, err := r.read()

	var corrupt *CorruptLogError
	if !errors.As(err, &corrupt) {
		return entries, err
	}

	r.reportCorruption(ctx, corrupt)
	if err := r.preserve(ctx); err != nil {
		return nil, err
	}
	return []*models.AuditEntry{}, nil
}

func (r *FileAuditLogRepository) reportCorruption(ctx context.Context, corrupt *CorruptLogError) {
	metrics.AuditCorruptions.Inc()
	r.logger.ErrorContext(ctx, "audit log is corrupt, treating it as empty; prior history is not visible until restored",
		"path", corrupt.Path,
		"error", corrupt.Err,
	)
}

// preserve renames the corrupt file and copies it to the archive when one is configured
func (r *FileAuditLogRepository) preserve(ctx context.Context) error {
	corruptPath := fmt.Sprintf("%s.corrupt-%d", r.path, r.now().UnixNano())
	if err := os.Rename(r.path, corruptPath); err != nil {
		return fmt.Errorf("failed to preserve corrupt audit log: %w", err)
	}
	r.logger.WarnContext(ctx, "corrupt audit log preserved", "path", corruptPath)

	if r.archive == nil {
		return nil
	}

	f, err := os.Open(corruptPath)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to open preserved audit log for archiving", "path", corruptPath, "error", err)
		return nil
	}
	defer f.Close()

	storagePath, err := r.archive.Upload(ctx, uuid.New(), filepath.Base(corruptPath), f)
	if err != nil {
		// The local copy is still on disk
		r.logger.WarnContext(ctx, "failed to archive corrupt audit log", "path", corruptPath, "error", err)
		return nil
	}
	r.logger.InfoContext(ctx, "corrupt audit log archived", "storage_path", storagePath)
	return nil
}

// write replaces the log file atomically. Caller holds the write lock.
func (r *FileAuditLogRepository) write(entries []*models.AuditEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode audit log: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+filepath.Base(r.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp audit log: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync audit log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close audit log: %w", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace audit log: %w", err)
	}
	return nil
}
