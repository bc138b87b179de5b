package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key has no object behind it.
var ErrNotFound = errors.New("object not found")

// ErrPresignUnsupported is returned by stores that cannot mint
// time-boxed URLs; callers fall back to service-relative stream paths.
var ErrPresignUnsupported = errors.New("presigned urls not supported")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Store is the object-storage capability the pipeline depends on.
// Implementations treat the backend as unreliable; every call can fail.
type Store interface {
	// Put writes an object, overwriting any existing one at key.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	// Get reads a whole object.
	Get(ctx context.Context, key string) ([]byte, error)
	// Open returns a seekable reader for range/partial delivery.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, ObjectInfo, error)
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns the objects under a key prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)
	// PresignedURL mints a retrievable URL valid for expiry, or
	// ErrPresignUnsupported.
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
