package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OptimisticPrefix marks ids synthesized before the storage backend confirms a change
const OptimisticPrefix = "optimistic-"

// Record is anything with a unique, stable string id
type Record interface {
	GetID() string
}

// FileType is the coarse category a file belongs to
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeDocument FileType = "document"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeArchive  FileType = "archive"
	FileTypeText     FileType = "text"
	FileTypeOther    FileType = "other"
)

// Folder represents a folder in the bucket. The root folder has the empty id.
type Folder struct {
	ID         string
	Name       string
	ParentID   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Optimistic bool
}

// GetID implements Record
func (f Folder) GetID() string { return f.ID }

// File represents a stored object shown in the browser
type File struct {
	ID         string
	Name       string
	FolderID   string
	Type       FileType
	MimeType   string
	Size       int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Optimistic bool
}

// GetID implements Record
func (f File) GetID() string { return f.ID }

// UploadStatus tracks where a queued upload is in its lifecycle
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadFailed    UploadStatus = "failed"
)

// Upload is a local file waiting to be sent to a folder.
// Src is a preview handle owned by the upload queue and released on removal.
type Upload struct {
	ID        string
	Name      string
	LocalPath string
	FolderID  string
	MimeType  string
	Type      FileType
	Src       string
	Size      int64
	Status    UploadStatus
	Progress  float64
	Err       string
}

// GetID implements Record
func (u Upload) GetID() string { return u.ID }

// PathEntry is one breadcrumb element
type PathEntry struct {
	FolderID   string
	FolderName string
}

// OptimisticID derives a provisional id from seed
func OptimisticID(seed string) string {
	return OptimisticPrefix + seed
}

// NewOptimisticID returns a fresh provisional id
func NewOptimisticID() string {
	return OptimisticID(uuid.NewString())
}

// IsOptimisticID reports whether id was synthesized locally
func IsOptimisticID(id string) bool {
	return strings.HasPrefix(id, OptimisticPrefix)
}

// FileTypeOf maps a mime type to its category
func FileTypeOf(mimeType string) FileType {
	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return FileTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return FileTypeAudio
	case strings.HasPrefix(mimeType, "text/"), mimeType == "application/json":
		return FileTypeText
	case mimeType == "application/pdf",
		strings.Contains(mimeType, "officedocument"),
		strings.Contains(mimeType, "msword"),
		strings.Contains(mimeType, "opendocument"):
		return FileTypeDocument
	case strings.Contains(mimeType, "zip"),
		strings.Contains(mimeType, "tar"),
		strings.Contains(mimeType, "gzip"),
		strings.Contains(mimeType, "compressed"):
		return FileTypeArchive
	default:
		return FileTypeOther
	}
}
