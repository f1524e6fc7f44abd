// Package files implements the file metadata service: persisting file and
// folder records, enforcing the hierarchy rules, and serving raw content.
package files

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"mime"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/maverick-lab/filebox/internal/common"
	"github.com/maverick-lab/filebox/internal/models"
	"github.com/maverick-lab/filebox/internal/storage"
)

// DefaultPageSize is the fixed page size for listings.
const DefaultPageSize = 20

// FileStore is the slice of the metadata store the service needs.
type FileStore interface {
	CreateFile(ctx context.Context, file *models.FileRecord) error
	GetFile(ctx context.Context, fileID string) (*models.FileRecord, error)
	GetFileForOwner(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error)
	ListFiles(ctx context.Context, ownerID, parentID string, page, pageSize int) ([]*models.FileRecord, error)
	UpdateVisibility(ctx context.Context, fileID, ownerID string, isPublic bool) error
}

// Enqueuer hands completed image uploads to the thumbnail pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, job models.ThumbnailJob) error
}

// UploadRequest is the decoded upload body. Data carries the base64-encoded
// payload and is required for every kind except folder.
type UploadRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"type"`
	ParentID string `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data"`
}

// Service validates and persists file records and serves their content.
type Service struct {
	store FileStore
	blobs storage.BlobStore
	queue Enqueuer
}

// NewService creates a file metadata service
func NewService(store FileStore, blobs storage.BlobStore, queue Enqueuer) *Service {
	return &Service{store: store, blobs: blobs, queue: queue}
}

// Upload validates the request, writes the payload to blob storage (payload
// first, metadata second) and persists the record. Image uploads enqueue a
// thumbnail job after the record is persisted.
//
// The parent record, when given, must exist and be a folder. Its ownership is
// deliberately not checked against the caller: the legacy behavior allows
// nesting under another owner's folder and tightening that is a product
// decision.
func (s *Service) Upload(ctx context.Context, ownerID string, req UploadRequest) (*models.FileRecord, error) {
	if req.Name == "" {
		return nil, common.NewValidationError("Missing name")
	}
	if !models.ValidKind(req.Kind) {
		return nil, common.NewValidationError("Missing type")
	}
	if req.Kind != models.KindFolder && req.Data == "" {
		return nil, common.NewValidationError("Missing data")
	}

	parentID := req.ParentID
	if parentID == "" {
		parentID = models.RootParentID
	}
	if parentID != models.RootParentID {
		parent, err := s.store.GetFile(ctx, parentID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.NewValidationError("Parent not found")
			}
			return nil, common.ErrInternal
		}
		if parent.Kind != models.KindFolder {
			return nil, common.NewValidationError("Parent is not a folder")
		}
	}

	record := &models.FileRecord{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Kind:        req.Kind,
		IsPublic:    req.IsPublic,
		ParentID:    parentID,
		ThumbStatus: models.ThumbNone,
	}

	if req.Kind == models.KindFolder {
		if err := s.store.CreateFile(ctx, record); err != nil {
			return nil, common.ErrInternal
		}
		return record, nil
	}

	payload, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return nil, common.NewValidationError("Missing data")
	}

	// Blob first, metadata second: an orphaned blob is a tolerable leak,
	// metadata pointing at a missing blob is not.
	key := uuid.New().String()
	if err := s.blobs.Put(ctx, key, payload); err != nil {
		return nil, common.ErrInternal
	}

	record.LocalPath = key
	if req.Kind == models.KindImage {
		record.ThumbStatus = models.ThumbPending
	}

	if err := s.store.CreateFile(ctx, record); err != nil {
		return nil, common.ErrInternal
	}

	if req.Kind == models.KindImage {
		job := models.ThumbnailJob{FileID: record.ID, UserID: ownerID}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			// The record stays pending; the job can be re-enqueued.
			log.Printf("Warning: failed to enqueue thumbnail job for %s: %v", record.ID, err)
		}
	}

	return record, nil
}

// Get fetches a record scoped to its owner. A record owned by someone else
// is indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, ownerID, fileID string) (*models.FileRecord, error) {
	record, err := s.store.GetFileForOwner(ctx, fileID, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}
	return record, nil
}

// List returns one page of the caller's records under parentID. A page past
// the end yields an empty slice, not an error.
func (s *Service) List(ctx context.Context, ownerID, parentID string, page int) ([]*models.FileRecord, error) {
	if parentID == "" {
		parentID = models.RootParentID
	}
	if page < 0 {
		page = 0
	}
	records, err := s.store.ListFiles(ctx, ownerID, parentID, page, DefaultPageSize)
	if err != nil {
		return nil, common.ErrInternal
	}
	if records == nil {
		records = []*models.FileRecord{}
	}
	return records, nil
}

// SetVisibility flips isPublic on an owned record and returns the refreshed
// record. Publish and unpublish both funnel through here.
func (s *Service) SetVisibility(ctx context.Context, ownerID, fileID string, isPublic bool) (*models.FileRecord, error) {
	if _, err := s.store.GetFileForOwner(ctx, fileID, ownerID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}

	if err := s.store.UpdateVisibility(ctx, fileID, ownerID, isPublic); err != nil {
		return nil, common.ErrInternal
	}

	record, err := s.store.GetFileForOwner(ctx, fileID, ownerID)
	if err != nil {
		return nil, common.ErrInternal
	}
	return record, nil
}

// GetContent returns the raw payload and MIME type of a record. Access is
// granted when the record is public or viewerID matches the owner; anything
// else reads as not found so existence is never disclosed. viewerID is empty
// for unauthenticated callers.
func (s *Service) GetContent(ctx context.Context, fileID, viewerID string) ([]byte, string, error) {
	record, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ErrNotFound
		}
		return nil, "", common.ErrInternal
	}

	if !record.IsPublic && (viewerID == "" || viewerID != record.OwnerID) {
		return nil, "", common.ErrNotFound
	}

	if record.Kind == models.KindFolder {
		return nil, "", common.NewValidationError("A folder doesn't have content")
	}

	if record.LocalPath == "" {
		return nil, "", common.ErrNotFound
	}

	data, err := s.blobs.Get(ctx, record.LocalPath)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(record.Name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return data, mimeType, nil
}
