package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains the file store abstraction backing uploaded
// documents. Two implementations exist: a local-disk store and an
// S3-compatible object store (MinIO). Keys are opaque to callers; the
// service layer generates them and persists them as the document's
// storage path.

// PutOptions define optional parameters for storing files.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// FileInfo contains basic information about a stored file.
type FileInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// FileStore persists uploaded bytes under generated keys.
//
// Delete is idempotent: removing an absent key is not an error. Exists lets
// callers detect drift between a document row and its backing file before
// serving a download.
type FileStore interface {
	// Put stores the reader's content under the given key.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (FileInfo, error)
	// Get opens the stored content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, FileInfo, error)
	// Exists reports whether a file is present under the key.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the file under the key; absent keys are a no-op.
	Delete(ctx context.Context, key string) error
}
