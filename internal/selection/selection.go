// Package selection tracks which files and folders are selected in the browser.
package selection

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/model"
)

// Kind is a selectable entity kind
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Observer receives the selections after every change
type Observer func(files []model.File, folders []model.Folder)

// Options configure selection behaviour
type Options struct {
	// Multiple allows several records per kind; otherwise exactly one
	// record across both kinds can be selected.
	Multiple  bool
	Which     []Kind
	FileTypes []model.FileType
	Observer  Observer
}

// DefaultOptions allows multi-select of files and folders of any type
func DefaultOptions() Options {
	return Options{
		Multiple: true,
		Which:    []Kind{KindFile, KindFolder},
	}
}

// Selector holds the selected files and folders
type Selector struct {
	mu      sync.RWMutex
	opts    Options
	files   []model.File
	folders []model.Folder
	active  bool
}

// NewSelector creates a selector. An empty Which allows both kinds.
func NewSelector(opts Options) *Selector {
	if len(opts.Which) == 0 {
		opts.Which = []Kind{KindFile, KindFolder}
	}
	return &Selector{opts: opts, active: true}
}

// Options returns the selector configuration
func (s *Selector) Options() Options {
	return s.opts
}

// Allows reports whether kind can be selected
func (s *Selector) Allows(kind Kind) bool {
	for _, k := range s.opts.Which {
		if k == kind {
			return true
		}
	}
	return false
}

func (s *Selector) allowsType(t model.FileType) bool {
	if len(s.opts.FileTypes) == 0 {
		return true
	}
	for _, ft := range s.opts.FileTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// ToggleFile selects or deselects file
func (s *Selector) ToggleFile(file model.File) {
	if !s.Allows(KindFile) || !s.allowsType(file.Type) {
		logrus.Debugf("selection: file %s not selectable", file.ID)
		return
	}

	s.mu.Lock()
	idx := indexOf(s.files, file.ID)
	switch {
	case s.opts.Multiple && idx >= 0:
		s.files = append(s.files[:idx:idx], s.files[idx+1:]...)
	case s.opts.Multiple:
		s.files = append(s.files, file)
	case idx >= 0:
		s.folders = nil
		s.files = nil
	default:
		s.folders = nil
		s.files = []model.File{file}
	}
	s.mu.Unlock()

	s.notify()
}

// ToggleFolder selects or deselects folder
func (s *Selector) ToggleFolder(folder model.Folder) {
	if !s.Allows(KindFolder) {
		logrus.Debugf("selection: folder %s not selectable", folder.ID)
		return
	}

	s.mu.Lock()
	idx := indexOf(s.folders, folder.ID)
	switch {
	case s.opts.Multiple && idx >= 0:
		s.folders = append(s.folders[:idx:idx], s.folders[idx+1:]...)
	case s.opts.Multiple:
		s.folders = append(s.folders, folder)
	case idx >= 0:
		s.files = nil
		s.folders = nil
	default:
		s.files = nil
		s.folders = []model.Folder{folder}
	}
	s.mu.Unlock()

	s.notify()
}

// IsFileSelected reports whether the file with id is selected
func (s *Selector) IsFileSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.files, id) >= 0
}

// IsFolderSelected reports whether the folder with id is selected
func (s *Selector) IsFolderSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.folders, id) >= 0
}

// IsSelected reports whether the record of kind with id is selected
func (s *Selector) IsSelected(kind Kind, id string) bool {
	switch kind {
	case KindFile:
		return s.IsFileSelected(id)
	case KindFolder:
		return s.IsFolderSelected(id)
	default:
		return false
	}
}

// SelectedFiles returns the selected files in selection order
func (s *Selector) SelectedFiles() []model.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.File(nil), s.files...)
}

// SelectedFolders returns the selected folders in selection order
func (s *Selector) SelectedFolders() []model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Folder(nil), s.folders...)
}

// Count returns the number of selected records across both kinds
func (s *Selector) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files) + len(s.folders)
}

// ClearFiles deselects every file
func (s *Selector) ClearFiles() {
	s.mu.Lock()
	s.files = nil
	s.mu.Unlock()
	s.notify()
}

// ClearFolders deselects every folder
func (s *Selector) ClearFolders() {
	s.mu.Lock()
	s.folders = nil
	s.mu.Unlock()
	s.notify()
}

// ClearAll deselects everything
func (s *Selector) ClearAll() {
	s.mu.Lock()
	s.files = nil
	s.folders = nil
	s.mu.Unlock()
	s.notify()
}

// SetActive toggles whether selection mode is active
func (s *Selector) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// Active reports whether selection mode is active
func (s *Selector) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Selector) notify() {
	if s.opts.Observer == nil {
		return
	}
	s.opts.Observer(s.SelectedFiles(), s.SelectedFolders())
}

func indexOf[T model.Record](list []T, id string) int {
	for i, item := range list {
		if item.GetID() == id {
			return i
		}
	}
	return -1
}
