package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/maverick-lab/filebox/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiskStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "store")

	ds, err := NewDiskStore(root)
	require.NoError(t, err)

	info, err := os.Stat(ds.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDiskStorePutGet(t *testing.T) {
	ds, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ds.Put(ctx, "key1", []byte("payload")))

	data, err := ds.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	ok, err := ds.Exists(ctx, "key1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDiskStorePutOverwrites(t *testing.T) {
	ds, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ds.Put(ctx, "key1", []byte("first")))
	require.NoError(t, ds.Put(ctx, "key1", []byte("second")))

	data, err := ds.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestDiskStoreMissingObject(t *testing.T) {
	ds, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ds.Get(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	ok, err := ds.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
