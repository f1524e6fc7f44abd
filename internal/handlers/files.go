package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/maverick-lab/filebox/internal/files"
	"github.com/maverick-lab/filebox/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SessionResolver maps an opaque token to a userID.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// FileService is the slice of the metadata service the HTTP layer needs.
type FileService interface {
	Upload(ctx context.Context, ownerID string, req files.UploadRequest) (*models.FileRecord, error)
	Get(ctx context.Context, ownerID, fileID string) (*models.FileRecord, error)
	List(ctx context.Context, ownerID, parentID string, page int) ([]*models.FileRecord, error)
	SetVisibility(ctx context.Context, ownerID, fileID string, isPublic bool) (*models.FileRecord, error)
	GetContent(ctx context.Context, fileID, viewerID string) ([]byte, string, error)
}

// FilesHandler serves the /files endpoints
type FilesHandler struct {
	sessions SessionResolver
	files    FileService
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(sessions SessionResolver, files FileService) *FilesHandler {
	return &FilesHandler{sessions: sessions, files: files}
}

// resolve authenticates the X-Token header on owner-only endpoints.
func (fh *FilesHandler) resolve(ctx context.Context, r *http.Request) (string, error) {
	return fh.sessions.ResolveSession(ctx, r.Header.Get(XTokenHeader))
}

// Upload handles POST /files
func (fh *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "upload_file",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ownerID, err := fh.resolve(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req files.UploadRequest
	decodeBody(r, &req)

	span.SetAttributes(attribute.String("file_type", req.Kind))

	record, err := fh.files.Upload(ctx, ownerID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	span.SetAttributes(attribute.String("file_id", record.ID))
	writeJSON(w, http.StatusCreated, record)
}

// Show handles GET /files/{id}
func (fh *FilesHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "show_file",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ownerID, err := fh.resolve(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	fileID := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("file_id", fileID))

	record, err := fh.files.Get(ctx, ownerID, fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Index handles GET /files?parentId=&page=
func (fh *FilesHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "list_files",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ownerID, err := fh.resolve(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	parentID := r.URL.Query().Get("parentId")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	records, err := fh.files.List(ctx, ownerID, parentID, page)
	if err != nil {
		writeError(w, err)
		return
	}

	span.SetAttributes(attribute.Int("file_count", len(records)))
	writeJSON(w, http.StatusOK, records)
}

// Publish handles PUT /files/{id}/publish
func (fh *FilesHandler) Publish(w http.ResponseWriter, r *http.Request) {
	fh.setVisibility(w, r, true)
}

// Unpublish handles PUT /files/{id}/unpublish
func (fh *FilesHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	fh.setVisibility(w, r, false)
}

func (fh *FilesHandler) setVisibility(w http.ResponseWriter, r *http.Request, isPublic bool) {
	ctx, span := tracer.Start(r.Context(), "set_visibility",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.Bool("is_public", isPublic)),
	)
	defer span.End()

	ownerID, err := fh.resolve(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	fileID := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("file_id", fileID))

	record, err := fh.files.SetVisibility(ctx, ownerID, fileID, isPublic)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Content handles GET /files/{id}/data. The token is optional: public
// records are served to anyone, private ones only to their owner.
func (fh *FilesHandler) Content(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "file_content",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	fileID := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("file_id", fileID))

	viewerID := ""
	if token := r.Header.Get(XTokenHeader); token != "" {
		// An invalid token falls through as an anonymous viewer.
		if userID, err := fh.sessions.ResolveSession(ctx, token); err == nil {
			viewerID = userID
		}
	}

	data, mimeType, err := fh.files.GetContent(ctx, fileID, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	span.SetAttributes(attribute.Int("size_bytes", len(data)))
	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		span.RecordError(err)
	}
}
