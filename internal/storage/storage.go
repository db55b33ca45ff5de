// Package storage defines the contract between the browser session and the
// object store holding files and folders.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/HaiFongPan/r2drive/internal/model"
)

// Code classifies a storage failure
type Code string

const (
	CodeMalformed  Code = "malformed"
	CodePermission Code = "permission"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal"
)

// Sentinels matched with errors.Is against *Error
var (
	ErrMalformed  = errors.New("malformed request")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrInternal   = errors.New("internal storage error")
)

// Error is a failed storage call
type Error struct {
	Op   string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's code
func (e *Error) Is(target error) bool {
	return sentinel(e.Code) == target
}

func sentinel(code Code) error {
	switch code {
	case CodeMalformed:
		return ErrMalformed
	case CodePermission:
		return ErrPermission
	case CodeNotFound:
		return ErrNotFound
	case CodeConflict:
		return ErrConflict
	default:
		return ErrInternal
	}
}

// NewError creates a storage error
func NewError(op string, code Code, err error) *Error {
	return &Error{Op: op, Code: code, Err: err}
}

// CodeOf returns the code of err, CodeInternal for foreign errors
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

// FolderData is the content of one folder
type FolderData struct {
	// Folder is nil for the root
	Folder     *model.Folder
	Subfolders []model.Folder
	Files      []model.File
}

// CreateFolderArgs creates Name under ParentID
type CreateFolderArgs struct {
	Name     string
	ParentID string
}

// UpdateFolderArgs renames the folder ID to Name
type UpdateFolderArgs struct {
	ID   string
	Name string
}

// TrashFilesArgs trashes files by id
type TrashFilesArgs struct {
	IDs []string
}

// TrashFoldersArgs trashes folders and their contents
type TrashFoldersArgs struct {
	IDs []string
}

// MoveArgs moves files and folders into FolderID
type MoveArgs struct {
	FileIDs   []string
	FolderIDs []string
	FolderID  string
}

// MoveResult maps each moved id to its id at the destination
type MoveResult struct {
	Files   map[string]string
	Folders map[string]string
}

// Storage is the folder and file API used by the session
type Storage interface {
	GetFolderData(ctx context.Context, folderID string) (*FolderData, error)
	CreateFolder(ctx context.Context, args CreateFolderArgs) (*model.Folder, error)
	UpdateFolder(ctx context.Context, args UpdateFolderArgs) (*model.Folder, error)
	TrashFiles(ctx context.Context, args TrashFilesArgs) error
	TrashFolders(ctx context.Context, args TrashFoldersArgs) error
	MoveToFolder(ctx context.Context, args MoveArgs) (*MoveResult, error)
}

// UploadConfig summarises what may be uploaded
type UploadConfig struct {
	// Accept maps a mime type to its accepted extensions
	Accept   map[string][]string
	MaxFiles int
	// MaxSize is in bytes
	MaxSize int64
}

// Inspector decides which local files may be uploaded
type Inspector interface {
	IsFileLegal(path string) bool
	IsFileSizeLegal(size int64) bool
	MaxFilesToUpload() int
	MaxFileSizeBytes() int64
	UploadConfig() UploadConfig
}
