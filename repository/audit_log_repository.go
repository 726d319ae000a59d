package repository

import (
	"context"

	"sparkai-backend/models"
)

// AuditLogStore is the append-only record of answered questions.
// Implementations serialize mutations so concurrent writers never lose updates.
type AuditLogStore interface {
	// Append adds an entry after all existing entries
	Append(ctx context.Context, entry *models.AuditEntry) error

	// List returns up to limit entries, newest first
	List(ctx context.Context, limit int) ([]*models.AuditEntry, error)

	// All returns every entry in append order
	All(ctx context.Context) ([]*models.AuditEntry, error)

	// SetFlag sets the flagged field of an entry and returns the updated entry.
	// It returns ErrAuditEntryNotFound for an unknown id.
	SetFlag(ctx context.Context, id string, flagged bool) (*models.AuditEntry, error)
}

// newestFirst returns up to limit entries of an append-ordered slice, newest first
func newestFirst(entries []*models.AuditEntry, limit int) []*models.AuditEntry {
	if limit <= 0 {
		return []*models.AuditEntry{}
	}
	if limit > len(entries) {
		limit = len(entries)
	}

	out := make([]*models.AuditEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out
}
