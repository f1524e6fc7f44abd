// Package thumbnail generates resized derivatives for uploaded images. Each
// image record moves pending -> ready when all widths succeed, or pending ->
// failed on the first error; both states are terminal, there are no
// in-process retries.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/maverick-lab/filebox/internal/common"
	"github.com/maverick-lab/filebox/internal/models"
	"github.com/maverick-lab/filebox/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("filebox-thumbnail")

// Widths are the target derivative widths. Outputs are independent, so order
// does not matter.
var Widths = []int{500, 250, 100}

// Fatal job errors. Jobs failing with these are not worth retrying.
var (
	ErrMissingFileID = errors.New("Missing fileId")
	ErrMissingUserID = errors.New("Missing userId")
	ErrFileNotFound  = errors.New("File not found")
)

// FileStore is the slice of the metadata store the processor needs.
type FileStore interface {
	GetFileForOwner(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error)
	UpdateThumbStatus(ctx context.Context, fileID, status string) error
}

// Processor turns a thumbnail job into derivative blobs.
type Processor struct {
	store FileStore
	blobs storage.BlobStore
}

// NewProcessor creates a thumbnail processor
func NewProcessor(store FileStore, blobs storage.BlobStore) *Processor {
	return &Processor{store: store, blobs: blobs}
}

// Process handles one job: it validates the payload, fetches the record
// scoped to id+owner, and writes one derivative per target width at
// <localPath>_<width>. Writes overwrite, so re-running a job is safe.
func (p *Processor) Process(ctx context.Context, job models.ThumbnailJob) error {
	ctx, span := tracer.Start(ctx, "thumbnail.process",
		trace.WithAttributes(
			attribute.String("file_id", job.FileID),
		),
	)
	defer span.End()

	if job.FileID == "" {
		return ErrMissingFileID
	}
	if job.UserID == "" {
		return ErrMissingUserID
	}

	record, err := p.store.GetFileForOwner(ctx, job.FileID, job.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ErrFileNotFound
		}
		span.RecordError(err)
		return fmt.Errorf("failed to fetch record: %w", err)
	}

	if err := p.generate(ctx, record); err != nil {
		span.RecordError(err)
		if statusErr := p.store.UpdateThumbStatus(ctx, record.ID, models.ThumbFailed); statusErr != nil {
			span.RecordError(statusErr)
		}
		return err
	}

	if err := p.store.UpdateThumbStatus(ctx, record.ID, models.ThumbReady); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark record ready: %w", err)
	}

	span.SetAttributes(attribute.Bool("thumbnails_generated", true))
	return nil
}

func (p *Processor) generate(ctx context.Context, record *models.FileRecord) error {
	source, err := p.blobs.Get(ctx, record.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to read source image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(source))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	format := encodeFormat(record.Name)

	for _, width := range Widths {
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, format); err != nil {
			return fmt.Errorf("failed to encode %d-wide derivative: %w", width, err)
		}

		key := fmt.Sprintf("%s_%d", record.LocalPath, width)
		if err := p.blobs.Put(ctx, key, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to store %d-wide derivative: %w", width, err)
		}
	}

	return nil
}

// encodeFormat picks the derivative encoding from the record name extension,
// defaulting to PNG when the extension is unknown.
func encodeFormat(name string) imaging.Format {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return imaging.PNG
	}
	return format
}
