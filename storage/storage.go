package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage archives audit log snapshots and preserved corrupt log files
type Storage interface {
	// Upload stores an archive object and returns its storage path
	Upload(ctx context.Context, objectID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves an archive object by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an archive object by storage path
	Delete(ctx context.Context, storagePath string) error
}

// ErrObjectNotFound is returned by Download for an unknown storage path
var ErrObjectNotFound = errors.New("archive object not found")

// ErrInvalidPath is returned for storage paths that escape the archive root
var ErrInvalidPath = errors.New("invalid storage path")

// StorageType represents the archive backend type
type StorageType string

const (
	StorageTypeNone  StorageType = "none"
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for archive storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates an archive storage from configuration.
// It returns nil without error for StorageTypeNone.
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeNone, "":
		return nil, nil
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 archive storage requires a bucket")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// archivePath builds "audit/YYYY/MM/<id>_<name><ext>" for an object
func archivePath(objectID uuid.UUID, filename string, now time.Time) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	name = strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(name)

	return fmt.Sprintf("audit/%04d/%02d/%s_%s%s", now.Year(), int(now.Month()), objectID.String(), name, ext)
}
