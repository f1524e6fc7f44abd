package models

import "time"

// File kinds accepted by the upload endpoint.
const (
	KindFolder = "folder"
	KindFile   = "file"
	KindImage  = "image"
)

// Thumbnail pipeline states for image records.
const (
	ThumbNone    = "none"
	ThumbPending = "pending"
	ThumbReady   = "ready"
	ThumbFailed  = "failed"
)

// RootParentID is the sentinel parentId meaning "top level, no folder".
const RootParentID = "0"

// ValidKind reports whether t is one of the accepted file kinds.
func ValidKind(t string) bool {
	return t == KindFolder || t == KindFile || t == KindImage
}

// User represents an account stored in the users table. PasswordDigest is a
// one-way digest of the signup password and never leaves the server.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"-"`
	CreatedAt      time.Time `json:"-"`
}

// FileRecord represents file or folder metadata stored in the files table.
// LocalPath is the blob key of the raw payload; it is empty exactly when the
// record is a folder and is never exposed to clients.
type FileRecord struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"userId"`
	Name        string    `json:"name"`
	Kind        string    `json:"type"`
	IsPublic    bool      `json:"isPublic"`
	ParentID    string    `json:"parentId"`
	LocalPath   string    `json:"-"`
	ThumbStatus string    `json:"-"`
	CreatedAt   time.Time `json:"-"`
}

// ThumbnailJob is the queue message connecting an image upload to the
// thumbnail worker.
type ThumbnailJob struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}
