package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/maverick-lab/filebox/internal/common"
	"github.com/maverick-lab/filebox/internal/models"
	"github.com/maverick-lab/filebox/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFileStore struct {
	records  map[string]*models.FileRecord
	statuses map[string]string
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{
		records:  map[string]*models.FileRecord{},
		statuses: map[string]string{},
	}
}

func (f *fakeFileStore) GetFileForOwner(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error) {
	if r, ok := f.records[fileID]; ok && r.OwnerID == ownerID {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeFileStore) UpdateThumbStatus(ctx context.Context, fileID, status string) error {
	f.statuses[fileID] = status
	return nil
}

// pngBytes renders a small solid image so the pipeline has a real payload to
// decode and resize.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestProcessor(t *testing.T) (*Processor, *fakeFileStore, *storage.DiskStore) {
	t.Helper()
	store := newFakeFileStore()
	blobs, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return NewProcessor(store, blobs), store, blobs
}

func TestProcessGeneratesAllWidths(t *testing.T) {
	p, store, blobs := newTestProcessor(t)
	ctx := context.Background()

	key := "source-key"
	require.NoError(t, blobs.Put(ctx, key, pngBytes(t, 800, 600)))
	store.records["f1"] = &models.FileRecord{
		ID: "f1", OwnerID: "u1", Name: "photo.png", Kind: models.KindImage,
		LocalPath: key, ThumbStatus: models.ThumbPending,
	}

	err := p.Process(ctx, models.ThumbnailJob{FileID: "f1", UserID: "u1"})
	require.NoError(t, err)

	for _, width := range Widths {
		data, err := blobs.Get(ctx, fmt.Sprintf("%s_%d", key, width))
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, width, img.Bounds().Dx())
	}
	assert.Equal(t, models.ThumbReady, store.statuses["f1"])
}

func TestProcessValidatesPayload(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	ctx := context.Background()

	err := p.Process(ctx, models.ThumbnailJob{UserID: "u1"})
	assert.ErrorIs(t, err, ErrMissingFileID)

	err = p.Process(ctx, models.ThumbnailJob{FileID: "f1"})
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestProcessUnknownRecord(t *testing.T) {
	p, store, _ := newTestProcessor(t)

	err := p.Process(context.Background(), models.ThumbnailJob{FileID: "ghost", UserID: "u1"})
	assert.ErrorIs(t, err, ErrFileNotFound)
	// No status transition for a record that does not exist.
	assert.Empty(t, store.statuses)
}

func TestProcessOwnerMismatch(t *testing.T) {
	p, store, _ := newTestProcessor(t)

	store.records["f1"] = &models.FileRecord{
		ID: "f1", OwnerID: "u1", Name: "photo.png", Kind: models.KindImage, LocalPath: "k",
	}

	err := p.Process(context.Background(), models.ThumbnailJob{FileID: "f1", UserID: "u2"})
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Empty(t, store.statuses)
}

func TestProcessMissingSourceMarksFailed(t *testing.T) {
	p, store, _ := newTestProcessor(t)

	store.records["f1"] = &models.FileRecord{
		ID: "f1", OwnerID: "u1", Name: "photo.png", Kind: models.KindImage,
		LocalPath: "gone", ThumbStatus: models.ThumbPending,
	}

	err := p.Process(context.Background(), models.ThumbnailJob{FileID: "f1", UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, models.ThumbFailed, store.statuses["f1"])
}

func TestProcessCorruptImageMarksFailed(t *testing.T) {
	p, store, blobs := newTestProcessor(t)
	ctx := context.Background()

	require.NoError(t, blobs.Put(ctx, "k", []byte("not an image")))
	store.records["f1"] = &models.FileRecord{
		ID: "f1", OwnerID: "u1", Name: "photo.png", Kind: models.KindImage,
		LocalPath: "k", ThumbStatus: models.ThumbPending,
	}

	err := p.Process(ctx, models.ThumbnailJob{FileID: "f1", UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, models.ThumbFailed, store.statuses["f1"])
}

func TestProcessIsRerunnable(t *testing.T) {
	p, store, blobs := newTestProcessor(t)
	ctx := context.Background()

	require.NoError(t, blobs.Put(ctx, "k", pngBytes(t, 640, 480)))
	store.records["f1"] = &models.FileRecord{
		ID: "f1", OwnerID: "u1", Name: "photo.png", Kind: models.KindImage,
		LocalPath: "k", ThumbStatus: models.ThumbPending,
	}

	job := models.ThumbnailJob{FileID: "f1", UserID: "u1"}
	require.NoError(t, p.Process(ctx, job))
	require.NoError(t, p.Process(ctx, job))
	assert.Equal(t, models.ThumbReady, store.statuses["f1"])
}
