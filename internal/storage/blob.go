package storage

import (
	"context"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("filebox-storage")

// BlobStore holds raw file payloads and thumbnail derivatives, addressed by
// opaque keys. Put overwrites existing objects, so re-running a thumbnail
// job is safe. Get returns common.ErrNotFound for a missing object.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}
