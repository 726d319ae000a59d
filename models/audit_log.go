package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// AuditClause represents a clause reference recorded with an audit entry
type AuditClause struct {
	Standard string  `json:"standard"`
	Clause   string  `json:"clause"`
	Score    float64 `json:"score"`
}

// AuditClauses represents the ordered clause references of an audit entry
type AuditClauses []AuditClause

// Value implements driver.Valuer for JSONB
func (a AuditClauses) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB
func (a *AuditClauses) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*a = make(AuditClauses, 0)
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*a = make(AuditClauses, 0)
		return nil
	}

	if len(bytes) == 0 {
		*a = make(AuditClauses, 0)
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// AuditEntry represents one answered question in the audit log.
// Flagged is the only field that changes after creation.
type AuditEntry struct {
	ID         string       `json:"id"`
	Timestamp  time.Time    `json:"timestamp"`
	Question   string       `json:"question"`
	Clauses    AuditClauses `json:"clauses"`
	Answer     string       `json:"answer"`
	Confidence *float64     `json:"confidence"`
	LatencyMS  float64      `json:"latency_ms"`
	Flagged    bool         `json:"flagged"`
}
