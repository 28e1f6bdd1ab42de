// Package rawfile stores the raw instrument export files referenced by
// measurement records. A record's data_file field is a key into this store;
// the ingestion pipeline acquires the file for the duration of one parse
// and releases it before merging results.
package rawfile

import (
	"context"
	"io"
	"time"
)

// Driver identifies a concrete raw-file storage backend implementation.
type Driver string

const (
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs" // local filesystem (default, dev)
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3" // S3 / MinIO compatible
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory" // in-memory (tests)
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // User metadata (small, flat key-value)
}

// Info describes a stored raw file.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store provides a thin S3-like abstraction over raw export file backends.
// Semantics mirror a minimal subset of S3 so that an S3 / MinIO adapter can
// be nearly 1:1 while a filesystem adapter can emulate them.
type Store interface {
	// Put stores a new file at key. MUST fail if the key already exists:
	// raw exports are immutable once attached to a record.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get retrieves the file contents and metadata. The caller owns the
	// returned ReadCloser and must close it.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes a file. Returns (false, nil) if not found.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns files whose key has the provided prefix. Stable ordering
	// by key ascending.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Driver returns the configured backend driver.
	Driver() Driver
}
