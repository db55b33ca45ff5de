package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/metrics"
	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/reducer"
	"github.com/HaiFongPan/r2drive/internal/storage"
	"github.com/HaiFongPan/r2drive/internal/windows"
)

// ErrNothingToMove is returned when a move has no files or folders
var ErrNothingToMove = errors.New("nothing to move")

// CreateFolder creates a folder, showing it as optimistic until confirmed
func (s *Session) CreateFolder(ctx context.Context, args storage.CreateFolderArgs) (*model.Folder, error) {
	defer s.beginOperation()()

	now := s.now()
	s.folders.DispatchOptimistic(reducer.Add(model.Folder{
		ID:         model.NewOptimisticID(),
		Name:       args.Name,
		ParentID:   args.ParentID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Optimistic: true,
	}))
	metrics.RecordOptimistic("folders")

	start := time.Now()
	folder, err := s.store.CreateFolder(ctx, args)
	metrics.RecordOperation("create_folder", err, time.Since(start))
	if err != nil {
		return nil, s.fail("create folder", err, s.folders)
	}

	s.folderCache.Revalidate(folder.ParentID)
	if folder.ParentID == s.CurrentFolderID() {
		s.folders.Dispatch(reducer.Add(*folder))
	}
	s.selector.ClearAll()
	s.notify(LevelInfo, "Folder %s created", folder.Name)
	return folder, nil
}

// UpdateFolder renames a folder. The backend may re-key it, in which case
// the displayed record takes the returned id.
func (s *Session) UpdateFolder(ctx context.Context, args storage.UpdateFolderArgs) (*model.Folder, error) {
	defer s.beginOperation()()

	s.folders.DispatchOptimistic(reducer.Patch[model.Folder](model.FolderPatch{
		ID:         args.ID,
		Name:       model.Ptr(args.Name),
		Optimistic: model.Ptr(true),
	}))
	metrics.RecordOptimistic("folders")

	start := time.Now()
	folder, err := s.store.UpdateFolder(ctx, args)
	metrics.RecordOperation("update_folder", err, time.Since(start))
	if err != nil {
		return nil, s.fail("update folder", err, s.folders)
	}

	s.folderCache.Revalidate(folder.ParentID)
	s.folderCache.Revalidate(args.ID)
	s.folders.Dispatch(reducer.Patch[model.Folder](model.FolderPatchFrom(args.ID, *folder)))
	s.selector.ClearAll()
	s.notify(LevelInfo, "Folder renamed to %s", folder.Name)
	return folder, nil
}

// TrashFiles moves files to the trash
func (s *Session) TrashFiles(ctx context.Context, args storage.TrashFilesArgs) error {
	defer s.beginOperation()()

	s.files.DispatchOptimistic(reducer.Remove[model.File](args.IDs...))
	metrics.RecordOptimistic("files")

	start := time.Now()
	err := s.store.TrashFiles(ctx, args)
	metrics.RecordOperation("trash_files", err, time.Since(start))

	// staged deletions are stale either way
	s.windows.ClearDeleteData(windows.DeleteFiles)
	if err != nil {
		return s.fail("trash files", err, s.files)
	}

	s.files.Dispatch(reducer.Remove[model.File](args.IDs...))
	s.folderCache.Revalidate(s.CurrentFolderID())
	s.selector.ClearAll()
	s.notify(LevelInfo, "%d file(s) moved to trash", len(args.IDs))
	return nil
}

// TrashFolders moves folders and their contents to the trash
func (s *Session) TrashFolders(ctx context.Context, args storage.TrashFoldersArgs) error {
	defer s.beginOperation()()

	s.folders.DispatchOptimistic(reducer.Remove[model.Folder](args.IDs...))
	metrics.RecordOptimistic("folders")

	start := time.Now()
	err := s.store.TrashFolders(ctx, args)
	metrics.RecordOperation("trash_folders", err, time.Since(start))

	s.windows.ClearDeleteData(windows.DeleteFolders)
	if err != nil {
		return s.fail("trash folders", err, s.folders)
	}

	s.folders.Dispatch(reducer.Remove[model.Folder](args.IDs...))
	s.folderCache.Revalidate(s.CurrentFolderID())
	for _, id := range args.IDs {
		s.folderCache.Revalidate(id)
	}
	s.selector.ClearAll()
	s.notify(LevelInfo, "%d folder(s) moved to trash", len(args.IDs))
	return nil
}

// MoveRequest moves Files and Folders from FromFolderID into DestFolderID
type MoveRequest struct {
	DestFolderID string
	FromFolderID string
	Files        []model.File
	Folders      []model.Folder
}

// StartMove stages the current selection for a move and opens the move window.
// The move is confirmed later from the destination with ConfirmMove.
func (s *Session) StartMove() error {
	files := s.selector.SelectedFiles()
	folders := s.selector.SelectedFolders()
	if len(files) == 0 && len(folders) == 0 {
		return ErrNothingToMove
	}

	s.windows.OpenMoveWindow(&windows.MoveDetails{
		FilesToMove:   files,
		FoldersToMove: folders,
		FromFolderID:  s.CurrentFolderID(),
	})
	return nil
}

// ConfirmMove moves the staged records into the folder being shown
func (s *Session) ConfirmMove(ctx context.Context) error {
	details := s.windows.MoveDetails()
	if details == nil {
		return ErrNothingToMove
	}
	return s.MoveToFolder(ctx, MoveRequest{
		DestFolderID: s.CurrentFolderID(),
		FromFolderID: details.FromFolderID,
		Files:        details.FilesToMove,
		Folders:      details.FoldersToMove,
	})
}

// CancelMove drops the pending move and closes the move window
func (s *Session) CancelMove() {
	s.windows.UpdateMoveDetails(nil)
	if s.windows.IsOpenMoveWindow() {
		s.windows.Toggle(windows.MoveWindow, false)
	}
}

// MoveToFolder moves records between folders. Records appear optimistically
// in the destination and disappear from the source when either is shown.
func (s *Session) MoveToFolder(ctx context.Context, req MoveRequest) error {
	if len(req.Files) == 0 && len(req.Folders) == 0 {
		return ErrNothingToMove
	}
	if req.DestFolderID == req.FromFolderID {
		s.CancelMove()
		return nil
	}

	defer s.beginOperation()()

	current := s.CurrentFolderID()
	fileIDs := make([]string, len(req.Files))
	for i, f := range req.Files {
		fileIDs[i] = f.ID
	}
	folderIDs := make([]string, len(req.Folders))
	for i, f := range req.Folders {
		folderIDs[i] = f.ID
	}

	switch current {
	case req.DestFolderID:
		s.folders.DispatchOptimistic(reducer.Add(optimisticFolders(req.Folders)...))
		s.files.DispatchOptimistic(reducer.Add(optimisticFiles(req.Files)...))
	case req.FromFolderID:
		s.folders.DispatchOptimistic(reducer.Remove[model.Folder](folderIDs...))
		s.files.DispatchOptimistic(reducer.Remove[model.File](fileIDs...))
	}
	metrics.RecordOptimistic("move")

	start := time.Now()
	result, err := s.store.MoveToFolder(ctx, storage.MoveArgs{
		FileIDs:   fileIDs,
		FolderIDs: folderIDs,
		FolderID:  req.DestFolderID,
	})
	metrics.RecordOperation("move_to_folder", err, time.Since(start))
	if err != nil {
		return s.fail("move", err, s.folders, s.files)
	}

	switch s.CurrentFolderID() {
	case req.DestFolderID:
		moved := movedFolders(req.Folders, result, req.DestFolderID)
		files := movedFiles(req.Files, result, req.DestFolderID)
		if len(moved) > 0 {
			s.folders.Dispatch(reducer.Add(moved...))
		}
		if len(files) > 0 {
			s.files.Dispatch(reducer.Add(files...))
		}
	case req.FromFolderID:
		s.folders.Dispatch(reducer.Remove[model.Folder](folderIDs...))
		s.files.Dispatch(reducer.Remove[model.File](fileIDs...))
	}

	s.selector.ClearAll()
	s.CancelMove()
	s.folderCache.Revalidate(req.FromFolderID)
	s.folderCache.Revalidate(req.DestFolderID)
	for _, id := range folderIDs {
		s.folderCache.Revalidate(id)
	}

	logrus.Debugf("Moved %d file(s) and %d folder(s) to %q", len(fileIDs), len(folderIDs), req.DestFolderID)
	s.notify(LevelInfo, "Moved %d item(s)", len(fileIDs)+len(folderIDs))
	return nil
}

func optimisticFolders(folders []model.Folder) []model.Folder {
	out := make([]model.Folder, len(folders))
	for i, f := range folders {
		f.ID = model.OptimisticID(f.ID)
		f.Optimistic = true
		out[i] = f
	}
	return out
}

func optimisticFiles(files []model.File) []model.File {
	out := make([]model.File, len(files))
	for i, f := range files {
		f.ID = model.OptimisticID(f.ID)
		f.Optimistic = true
		out[i] = f
	}
	return out
}

func movedFolders(folders []model.Folder, result *storage.MoveResult, dest string) []model.Folder {
	out := make([]model.Folder, 0, len(folders))
	for _, f := range folders {
		if result != nil {
			if id, ok := result.Folders[f.ID]; ok {
				f.ID = id
			}
		}
		f.ParentID = dest
		f.Optimistic = false
		out = append(out, f)
	}
	return out
}

func movedFiles(files []model.File, result *storage.MoveResult, dest string) []model.File {
	out := make([]model.File, 0, len(files))
	for _, f := range files {
		if result != nil {
			if id, ok := result.Files[f.ID]; ok {
				f.ID = id
			}
		}
		f.FolderID = dest
		f.Optimistic = false
		out = append(out, f)
	}
	return out
}
