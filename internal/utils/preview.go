package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PreviewMaxSize bounds the thumbnail edges in pixels
const PreviewMaxSize = 128

// PreviewStore owns thumbnails of queued uploads. Each handle returned by
// Create stays on disk until Release or Close.
type PreviewStore struct {
	dir     string
	mu      sync.Mutex
	handles map[string]struct{}
}

// NewPreviewStore creates a store in dir, or in a fresh temp dir when dir is empty
func NewPreviewStore(dir string) (*PreviewStore, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "r2drive-previews-")
		if err != nil {
			return nil, fmt.Errorf("failed to create preview dir: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create preview dir: %w", err)
	}
	return &PreviewStore{dir: dir, handles: make(map[string]struct{})}, nil
}

// Create writes a thumbnail of the image at path and returns its handle.
// Non-image files get an empty handle.
func (p *PreviewStore) Create(path string) (string, error) {
	contentType, _ := DetectContentType(path, nil)
	if !IsImageType(contentType) {
		return "", nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}

	thumb := imaging.Fit(img, PreviewMaxSize, PreviewMaxSize, imaging.Lanczos)
	src := filepath.Join(p.dir, uuid.NewString()+".png")
	if err := imaging.Save(thumb, src); err != nil {
		return "", fmt.Errorf("failed to write preview: %w", err)
	}

	p.mu.Lock()
	p.handles[src] = struct{}{}
	p.mu.Unlock()

	logrus.Debugf("Created preview %s for %s", src, path)
	return src, nil
}

// Release removes the thumbnail behind src
func (p *PreviewStore) Release(src string) error {
	p.mu.Lock()
	_, ok := p.handles[src]
	delete(p.handles, src)
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("preview %s is not owned by this store", src)
	}
	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove preview: %w", err)
	}
	return nil
}

// Len returns the number of live handles
func (p *PreviewStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Close removes the store directory and every thumbnail in it
func (p *PreviewStore) Close() error {
	p.mu.Lock()
	p.handles = make(map[string]struct{})
	p.mu.Unlock()
	return os.RemoveAll(p.dir)
}
