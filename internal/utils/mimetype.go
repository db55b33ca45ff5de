package utils

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/HaiFongPan/r2drive/internal/config"
	"github.com/HaiFongPan/r2drive/internal/storage"
)

// commonTypes covers extensions the system mime table often lacks
var commonTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".log":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".gz":   "application/gzip",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
}

// DetectContentType detects the MIME type of a file by extension first and
// by sniffing reader when the extension is unknown. reader may be nil.
func DetectContentType(filePath string, reader io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType, nil
	}
	if contentType, ok := commonTypes[ext]; ok {
		return contentType, nil
	}

	if reader != nil {
		buffer := make([]byte, 512)
		n, err := reader.Read(buffer)
		if err != nil && err != io.EOF {
			return "", err
		}
		if contentType := http.DetectContentType(buffer[:n]); contentType != "application/octet-stream" {
			return contentType, nil
		}
	}

	return "application/octet-stream", nil
}

// IsImageType checks if the content type represents an image
func IsImageType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// FileInspector decides which local files may be uploaded
type FileInspector struct {
	accept    map[string][]string
	byExt     map[string]string
	maxFiles  int
	maxSizeMB int64
}

var _ storage.Inspector = (*FileInspector)(nil)

// NewFileInspector builds an inspector from the upload configuration
func NewFileInspector(cfg config.UploadConfig) *FileInspector {
	fi := &FileInspector{
		accept:    make(map[string][]string, len(cfg.Legals)),
		byExt:     make(map[string]string),
		maxFiles:  cfg.MaxFiles,
		maxSizeMB: cfg.MaxFileSizeMB,
	}
	for _, legal := range cfg.Legals {
		for _, ext := range legal.Extensions {
			ext = strings.ToLower(ext)
			fi.accept[legal.Mime] = append(fi.accept[legal.Mime], ext)
			fi.byExt[ext] = legal.Mime
		}
	}
	return fi
}

// IsFileLegal reports whether the extension of path is accepted
func (fi *FileInspector) IsFileLegal(path string) bool {
	_, ok := fi.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsFileSizeLegal reports whether size is within the upload limit
func (fi *FileInspector) IsFileSizeLegal(size int64) bool {
	return size >= 0 && size <= fi.MaxFileSizeBytes()
}

// MaxFilesToUpload is the most files accepted in one drop
func (fi *FileInspector) MaxFilesToUpload() int {
	return fi.maxFiles
}

// MaxFileSizeBytes is the per-file limit in bytes
func (fi *FileInspector) MaxFileSizeBytes() int64 {
	return fi.maxSizeMB * 1024 * 1024
}

// MimeTypeOf returns the configured mime type for path, falling back to detection
func (fi *FileInspector) MimeTypeOf(path string) string {
	if m, ok := fi.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	m, _ := DetectContentType(path, nil)
	return m
}

// UploadConfig summarises the accepted uploads
func (fi *FileInspector) UploadConfig() storage.UploadConfig {
	accept := make(map[string][]string, len(fi.accept))
	for m, exts := range fi.accept {
		accept[m] = append([]string(nil), exts...)
	}
	return storage.UploadConfig{
		Accept:   accept,
		MaxFiles: fi.maxFiles,
		MaxSize:  fi.MaxFileSizeBytes(),
	}
}
