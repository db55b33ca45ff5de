package windows

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/model"
)

// Name identifies a dialog
type Name string

const (
	FolderWindow      Name = "folderWindow"
	UploadFilesWindow Name = "uploadFilesWindow"
	ViewWindow        Name = "viewWindow"
	DeleteWindow      Name = "deleteWindow"
	MoveWindow        Name = "moveWindow"
	TrashWindow       Name = "trashWindow"
)

// All lists every dialog name
var All = []Name{FolderWindow, UploadFilesWindow, ViewWindow, DeleteWindow, MoveWindow, TrashWindow}

// ParseInit maps configured window names, matched case-insensitively,
// to their initial state. Unknown names are ignored.
func ParseInit(raw map[string]bool) map[Name]bool {
	initial := make(map[Name]bool, len(raw))
	for key, open := range raw {
		for _, name := range All {
			if strings.EqualFold(key, string(name)) {
				initial[name] = open
			}
		}
	}
	return initial
}

// DeleteKind selects which delete staging to clear
type DeleteKind string

const (
	DeleteFiles   DeleteKind = "file"
	DeleteFolders DeleteKind = "folder"
	DeleteBoth    DeleteKind = "both"
)

// MoveDetails describes a pending move started from FromFolderID
type MoveDetails struct {
	FilesToMove   []model.File
	FoldersToMove []model.Folder
	FromFolderID  string
}

// FileInput opens the local file picker
type FileInput interface {
	Open()
}

// Manager tracks which dialogs are open and the data staged for them
type Manager struct {
	toggles *Toggles[Name]

	mu              sync.RWMutex
	folderToEdit    *model.Folder
	filesToDelete   []model.File
	foldersToDelete []model.Folder
	fileToView      *model.File
	folderToView    *model.Folder
	moveDetails     *MoveDetails
	fileInput       FileInput
}

// NewManager creates the dialog manager. initial sets initially open dialogs.
func NewManager(initial map[Name]bool) *Manager {
	m := &Manager{}
	m.toggles = NewToggles(map[Name]ToggleConfig{
		FolderWindow: {
			Init: initial[FolderWindow],
			PreToggle: func(open bool) {
				if !open {
					m.mu.Lock()
					m.folderToEdit = nil
					m.mu.Unlock()
				}
			},
		},
		UploadFilesWindow: {Init: initial[UploadFilesWindow]},
		ViewWindow: {
			Init: initial[ViewWindow],
			PreToggle: func(open bool) {
				if !open {
					m.mu.Lock()
					m.fileToView = nil
					m.folderToView = nil
					m.mu.Unlock()
				}
			},
		},
		DeleteWindow: {
			Init: initial[DeleteWindow],
			PreToggle: func(open bool) {
				if !open {
					m.ClearDeleteData(DeleteBoth)
				}
			},
		},
		MoveWindow: {
			Init: initial[MoveWindow],
			PreToggle: func(open bool) {
				if !open {
					m.UpdateMoveDetails(nil)
				}
			},
		},
		TrashWindow: {Init: initial[TrashWindow]},
	})
	return m
}

// SetFileInput wires the file picker used by OpenFileInput
func (m *Manager) SetFileInput(in FileInput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileInput = in
}

// Toggle toggles a dialog, or sets it to explicit[0] when given
func (m *Manager) Toggle(name Name, explicit ...bool) {
	if err := m.toggles.Toggle(name, explicit...); err != nil {
		logrus.Warnf("windows: %v", err)
	}
}

// IsOpen reports whether name is open
func (m *Manager) IsOpen(name Name) bool {
	return m.toggles.IsOpen(name)
}

func (m *Manager) IsOpenFolderWindow() bool      { return m.IsOpen(FolderWindow) }
func (m *Manager) IsOpenUploadFilesWindow() bool { return m.IsOpen(UploadFilesWindow) }
func (m *Manager) IsOpenViewWindow() bool        { return m.IsOpen(ViewWindow) }
func (m *Manager) IsOpenDeleteWindow() bool      { return m.IsOpen(DeleteWindow) }
func (m *Manager) IsOpenMoveWindow() bool        { return m.IsOpen(MoveWindow) }
func (m *Manager) IsOpenTrashWindow() bool       { return m.IsOpen(TrashWindow) }

// AnyOpen reports whether any dialog is open
func (m *Manager) AnyOpen() bool {
	for _, open := range m.toggles.States() {
		if open {
			return true
		}
	}
	return false
}

// OpenFileInput asks the file picker to open, if one is wired
func (m *Manager) OpenFileInput() {
	m.mu.RLock()
	in := m.fileInput
	m.mu.RUnlock()
	if in != nil {
		in.Open()
	}
}

// OpenViewWindow toggles the view dialog showing a file or a folder.
// Exactly one of file and folder should be non-nil.
func (m *Manager) OpenViewWindow(file *model.File, folder *model.Folder) {
	m.Toggle(ViewWindow)

	m.mu.Lock()
	defer m.mu.Unlock()
	if file != nil {
		f := *file
		m.fileToView = &f
	} else if folder != nil {
		f := *folder
		m.folderToView = &f
	}
}

// OpenDeleteWindow stages files and folders for deletion and toggles the dialog.
// Nothing happens when both are empty.
func (m *Manager) OpenDeleteWindow(files []model.File, folders []model.Folder) {
	if len(files) == 0 && len(folders) == 0 {
		return
	}
	m.Toggle(DeleteWindow)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.filesToDelete = append([]model.File(nil), files...)
	m.foldersToDelete = append([]model.Folder(nil), folders...)
}

// OpenFolderWindow opens the folder dialog, editing folder when given
func (m *Manager) OpenFolderWindow(folder *model.Folder) {
	m.Toggle(FolderWindow, true)

	if folder != nil {
		f := *folder
		m.mu.Lock()
		m.folderToEdit = &f
		m.mu.Unlock()
	}
}

// OpenMoveWindow toggles the move dialog, staging details when given
func (m *Manager) OpenMoveWindow(details *MoveDetails) {
	m.Toggle(MoveWindow)

	if details != nil {
		m.UpdateMoveDetails(details)
	}
}

// UpdateMoveDetails sets or clears the pending move
func (m *Manager) UpdateMoveDetails(details *MoveDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if details == nil {
		m.moveDetails = nil
		return
	}
	d := MoveDetails{
		FilesToMove:   append([]model.File(nil), details.FilesToMove...),
		FoldersToMove: append([]model.Folder(nil), details.FoldersToMove...),
		FromFolderID:  details.FromFolderID,
	}
	m.moveDetails = &d
}

// ClearDeleteData drops staged deletions of kind
func (m *Manager) ClearDeleteData(kind DeleteKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case DeleteFiles:
		m.filesToDelete = nil
	case DeleteFolders:
		m.foldersToDelete = nil
	case DeleteBoth:
		m.filesToDelete = nil
		m.foldersToDelete = nil
	}
}

// MoveDetails returns the pending move, nil when none
func (m *Manager) MoveDetails() *MoveDetails {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.moveDetails == nil {
		return nil
	}
	d := *m.moveDetails
	return &d
}

// MovePending reports whether a move is staged
func (m *Manager) MovePending() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.moveDetails != nil
}

// FolderToEdit returns the folder staged for editing
func (m *Manager) FolderToEdit() *model.Folder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyPtr(m.folderToEdit)
}

// FileToView returns the file staged for viewing
func (m *Manager) FileToView() *model.File {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyPtr(m.fileToView)
}

// FolderToView returns the folder staged for viewing
func (m *Manager) FolderToView() *model.Folder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyPtr(m.folderToView)
}

// FilesToDelete returns the files staged for deletion
func (m *Manager) FilesToDelete() []model.File {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.File(nil), m.filesToDelete...)
}

// FoldersToDelete returns the folders staged for deletion
func (m *Manager) FoldersToDelete() []model.Folder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Folder(nil), m.foldersToDelete...)
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
