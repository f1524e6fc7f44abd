package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maverick-lab/filebox/internal/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DiskStore is the default BlobStore: objects are plain files under a
// configured storage root. Keys map directly to file names, so the stored
// key doubles as the record's localPath.
type DiskStore struct {
	root string
}

// NewDiskStore creates the storage root if absent and returns a disk store
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Root returns the storage root directory
func (ds *DiskStore) Root() string {
	return ds.root
}

func (ds *DiskStore) path(key string) string {
	return filepath.Join(ds.root, key)
}

// Put writes an object to disk with tracing, overwriting any existing file
func (ds *DiskStore) Put(ctx context.Context, key string, data []byte) error {
	_, span := tracer.Start(ctx, "disk.put",
		trace.WithAttributes(
			attribute.String("object_key", key),
			attribute.Int("size_bytes", len(data)),
		),
	)
	defer span.End()

	if err := os.WriteFile(ds.path(key), data, 0o644); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to write object: %w", err)
	}

	span.SetAttributes(attribute.Bool("write_success", true))
	return nil
}

// Get reads an object from disk with tracing
func (ds *DiskStore) Get(ctx context.Context, key string) ([]byte, error) {
	_, span := tracer.Start(ctx, "disk.get",
		trace.WithAttributes(
			attribute.String("object_key", key),
		),
	)
	defer span.End()

	data, err := os.ReadFile(ds.path(key))
	if os.IsNotExist(err) {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, common.ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	span.SetAttributes(attribute.Int("size_bytes", len(data)))
	return data, nil
}

// Exists reports whether an object is present on disk
func (ds *DiskStore) Exists(ctx context.Context, key string) (bool, error) {
	_, span := tracer.Start(ctx, "disk.exists",
		trace.WithAttributes(
			attribute.String("object_key", key),
		),
	)
	defer span.End()

	_, err := os.Stat(ds.path(key))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}
