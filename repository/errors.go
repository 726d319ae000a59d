package repository

import (
	"errors"
	"fmt"
)

// ErrAuditEntryNotFound is returned when no audit entry has the requested id
var ErrAuditEntryNotFound = errors.New("audit entry not found")

// LoadError reports a corpus or glossary document that could not be read or parsed
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// CorruptLogError reports an audit log file that failed to parse.
// The store recovers by treating the log as empty.
type CorruptLogError struct {
	Path string
	Err  error
}

func (e *CorruptLogError) Error() string {
	return fmt.Sprintf("corrupt audit log %s: %v", e.Path, e.Err)
}

func (e *CorruptLogError) Unwrap() error {
	return e.Err
}
