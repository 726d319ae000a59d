package repository

import (
	"context"
	"errors"
	"fmt"

	"sparkai-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogSchema creates the audit_logs table. seq carries the append order.
const AuditLogSchema = `
CREATE TABLE IF NOT EXISTS audit_logs (
    seq BIGSERIAL PRIMARY KEY,
    id UUID NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL,
    question TEXT NOT NULL,
    clauses JSONB NOT NULL DEFAULT '[]'::jsonb,
    answer TEXT NOT NULL,
    confidence DOUBLE PRECISION,
    latency_ms DOUBLE PRECISION NOT NULL,
    flagged BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_flagged ON audit_logs (flagged) WHERE flagged;`

const auditLogColumns = `id::text, created_at, question, clauses, answer, confidence, latency_ms, flagged`

// PostgresAuditLogRepository stores audit entries in Postgres. Each mutation is
// a single statement, so the database serializes concurrent writers.
type PostgresAuditLogRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAuditLogRepository creates a Postgres-backed audit log
func NewPostgresAuditLogRepository(db *pgxpool.Pool) *PostgresAuditLogRepository {
	return &PostgresAuditLogRepository{db: db}
}

// EnsureSchema creates the audit_logs table if it does not exist
func (r *PostgresAuditLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, AuditLogSchema); err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}
	return nil
}

// Append inserts an entry
func (r *PostgresAuditLogRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (
			id, created_at, question, clauses, answer, confidence, latency_ms, flagged
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)`

	clauses := entry.Clauses
	if clauses == nil {
		clauses = models.AuditClauses{}
	}

	_, err := r.db.Exec(
		ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Question,
		clauses,
		entry.Answer,
		entry.Confidence,
		entry.LatencyMS,
		entry.Flagged,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first
func (r *PostgresAuditLogRepository) List(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		return []*models.AuditEntry{}, nil
	}

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs ORDER BY seq DESC LIMIT $1`
	return r.query(ctx, query, limit)
}

// All returns every entry in append order
func (r *PostgresAuditLogRepository) All(ctx context.Context) ([]*models.AuditEntry, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs ORDER BY seq ASC`
	return r.query(ctx, query)
}

// SetFlag updates the flagged field of one entry
func (r *PostgresAuditLogRepository) SetFlag(ctx context.Context, id string, flagged bool) (*models.AuditEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAuditEntryNotFound
	}

	query := `
		UPDATE audit_logs SET flagged = $2
		WHERE id = $1::uuid
		RETURNING ` + auditLogColumns

	entry, err := scanAuditEntry(r.db.QueryRow(ctx, query, id, flagged))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAuditEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update audit entry: %w", err)
	}
	return entry, nil
}

func (r *PostgresAuditLogRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.AuditEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditEntry, 0)
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(row pgx.Row) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{}
	err := row.Scan(
		&entry.ID,
		&entry.Timestamp,
		&entry.Question,
		&entry.Clauses,
		&entry.Answer,
		&entry.Confidence,
		&entry.LatencyMS,
		&entry.Flagged,
	)
	if err != nil {
		return nil, err
	}

	entry.Timestamp = entry.Timestamp.UTC()
	if entry.Clauses == nil {
		entry.Clauses = make(models.AuditClauses, 0)
	}
	return entry, nil
}
