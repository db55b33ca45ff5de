package state

import (
	"sync"

	"github.com/HaiFongPan/r2drive/internal/model"
)

// Folders tracks the folder being displayed and its subfolders
type Folders struct {
	*List[model.Folder]

	mu     sync.RWMutex
	folder *model.Folder
}

// NewFolders creates a folder manager. A nil folder means the root.
func NewFolders(folder *model.Folder, subfolders ...model.Folder) *Folders {
	return &Folders{
		List:   NewList(subfolders...),
		folder: copyFolder(folder),
	}
}

// Folder returns the displayed folder, nil for the root
func (f *Folders) Folder() *model.Folder {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return copyFolder(f.folder)
}

// ReplaceFolder sets the displayed folder
func (f *Folders) ReplaceFolder(folder *model.Folder) {
	f.mu.Lock()
	f.folder = copyFolder(folder)
	f.mu.Unlock()

	f.List.mu.RLock()
	fn := f.List.onChange
	f.List.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Subfolders returns the projected subfolders
func (f *Folders) Subfolders() []model.Folder {
	return f.Items()
}

// NewFiles creates the file list manager
func NewFiles(initial ...model.File) *List[model.File] {
	return NewList(initial...)
}

func copyFolder(folder *model.Folder) *model.Folder {
	if folder == nil {
		return nil
	}
	c := *folder
	return &c
}
