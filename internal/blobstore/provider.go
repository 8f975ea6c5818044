// Package blobstore abstracts the tenant's source object location — a local
// filesystem directory or a bucket+key object store (S3/GCS/MinIO/Azure
// containers, all speaking the same bucket/key/prefix shape) — behind one
// Provider interface, following the teacher's internal/datasource.Source
// split-by-backend pattern generalized from single-file Open to
// list-then-open (spec.md §4.1 BlobFetcher needs to discover a tenant's
// pending blobs before it can download them).
package blobstore

import (
	"context"
	"io"
	"time"
)

// Blob describes one discovered object, independent of backend.
type Blob struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Provider lists and opens blobs under a tenant's configured root/prefix.
type Provider interface {
	// List returns blobs under prefix, ordered by Key.
	List(ctx context.Context, prefix string) ([]Blob, error)
	// Open streams one blob's content. Callers must Close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// New builds a Provider from a tenant.StorageConfig-shaped description. kind
// is "local" or "object"; the other fields are passed through as-is.
func New(kind string, local LocalConfig, object ObjectConfig) (Provider, error) {
	switch kind {
	case "local", "":
		return NewLocal(local.Root), nil
	case "object":
		return NewObject(object)
	default:
		return nil, &UnsupportedKindError{Kind: kind}
	}
}

// LocalConfig configures the filesystem provider.
type LocalConfig struct {
	Root string
}

// UnsupportedKindError reports an unrecognized storage kind.
type UnsupportedKindError struct{ Kind string }

func (e *UnsupportedKindError) Error() string {
	return "blobstore: unsupported storage kind " + e.Kind
}
