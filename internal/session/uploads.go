package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/reducer"
	"github.com/HaiFongPan/r2drive/internal/utils"
	"github.com/HaiFongPan/r2drive/internal/windows"
)

// ErrNoUploader is returned by ProcessUploads when the session cannot upload
var ErrNoUploader = errors.New("no uploader configured")

// DropFiles queues local files for upload into the current folder.
// Directories are expanded, illegal or oversized files are skipped and at
// most MaxFilesToUpload entries are kept in the queue. It returns the number
// of files queued.
func (s *Session) DropFiles(paths []string) (int, error) {
	local, err := utils.ExpandPaths(paths)
	if err != nil {
		s.notify(LevelError, "Failed to read dropped files: %v", err)
		return 0, fmt.Errorf("drop files: %w", err)
	}

	var accepted []utils.LocalFile
	skipped := 0
	for _, f := range local {
		if !s.inspector.IsFileLegal(f.Path) || !s.inspector.IsFileSizeLegal(f.Size) {
			logrus.Debugf("Rejected upload %s (%d bytes)", f.Path, f.Size)
			skipped++
			continue
		}
		accepted = append(accepted, f)
	}
	if skipped > 0 {
		s.notify(LevelWarn, "%d file(s) skipped: type not allowed or larger than %s",
			skipped, utils.FormatSize(s.inspector.MaxFileSizeBytes()))
	}

	if limit := s.inspector.MaxFilesToUpload(); limit > 0 {
		room := max(limit-s.uploads.Len(), 0)
		if len(accepted) > room {
			s.notify(LevelWarn, "Only %d file(s) can be queued at once", limit)
			accepted = accepted[:room]
		}
	}
	if len(accepted) == 0 {
		return 0, nil
	}

	folderID := s.CurrentFolderID()
	queued := make([]model.Upload, 0, len(accepted))
	for _, f := range accepted {
		queued = append(queued, s.newUpload(f, folderID))
	}
	s.uploads.Dispatch(reducer.Add(queued...))

	if !s.windows.IsOpenUploadFilesWindow() {
		s.windows.Toggle(windows.UploadFilesWindow)
	}
	return len(queued), nil
}

func (s *Session) newUpload(f utils.LocalFile, folderID string) model.Upload {
	mimeType, _ := utils.DetectContentType(f.Path, nil)

	var src string
	if s.previews != nil {
		var err error
		if src, err = s.previews.Create(f.Path); err != nil {
			logrus.Warnf("No preview for %s: %v", f.Path, err)
		}
	}

	return model.Upload{
		ID:        uuid.NewString(),
		Name:      filepath.Base(f.Path),
		LocalPath: f.Path,
		FolderID:  folderID,
		MimeType:  mimeType,
		Type:      model.FileTypeOf(mimeType),
		Src:       src,
		Size:      f.Size,
		Status:    model.UploadPending,
	}
}

// ProcessUploads uploads every pending or failed entry of the queue.
// Uploaded entries leave the queue and are delivered to AddUploadedFile;
// failed ones stay with their error.
func (s *Session) ProcessUploads(ctx context.Context) error {
	if s.uploader == nil {
		return ErrNoUploader
	}
	defer s.beginOperation()()

	var errs []error
	for _, queued := range s.uploads.Items() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		// 另一轮处理已认领的条目直接跳过
		u, ok := s.uploads.Claim(queued.ID)
		if !ok {
			continue
		}

		file, err := s.uploader.Upload(ctx, u, func(p float64) {
			s.uploads.Dispatch(reducer.Patch[model.Upload](model.UploadPatch{ID: u.ID, Progress: model.Ptr(p)}))
		})
		if err != nil {
			logrus.Errorf("Failed to upload %s: %v", u.LocalPath, err)
			s.uploads.Dispatch(reducer.Patch[model.Upload](model.UploadPatch{
				ID:     u.ID,
				Status: model.Ptr(model.UploadFailed),
				Err:    model.Ptr(err.Error()),
			}))
			s.notify(LevelError, "Failed to upload %s: %v", u.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", u.Name, err))
			continue
		}

		s.uploads.Dispatch(reducer.Remove[model.Upload](u.ID))
		s.AddUploadedFile(file)
		s.notify(LevelInfo, "Uploaded %s", file.Name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("process uploads: %w", errors.Join(errs...))
	}
	return nil
}

// AddUploadedFile merges a freshly uploaded file into the view when it
// belongs to the folder being shown. It reports whether the file was merged.
func (s *Session) AddUploadedFile(file model.File) bool {
	s.folderCache.Revalidate(file.FolderID)
	if file.FolderID != s.CurrentFolderID() {
		return false
	}

	// overwriting an existing object keeps its id
	if _, ok := s.files.Find(file.ID); ok {
		s.files.Dispatch(reducer.Update(file))
	} else {
		s.files.Dispatch(reducer.Add(file))
	}
	return true
}

// RemoveUpload drops an entry from the queue and releases its preview
func (s *Session) RemoveUpload(id string) {
	s.uploads.Dispatch(reducer.Remove[model.Upload](id))
}
