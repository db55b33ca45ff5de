package model

import "time"

// FolderPatch is a partial folder. Nil fields are left untouched on merge.
type FolderPatch struct {
	ID         string
	SetID      *string
	Name       *string
	ParentID   *string
	UpdatedAt  *time.Time
	Optimistic *bool
}

// PatchID returns the id of the folder the patch applies to
func (p FolderPatch) PatchID() string { return p.ID }

// Merge shallow-merges the set fields over f
func (p FolderPatch) Merge(f Folder) Folder {
	if p.SetID != nil {
		f.ID = *p.SetID
	}
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.ParentID != nil {
		f.ParentID = *p.ParentID
	}
	if p.UpdatedAt != nil {
		f.UpdatedAt = *p.UpdatedAt
	}
	if p.Optimistic != nil {
		f.Optimistic = *p.Optimistic
	}
	return f
}

// FolderPatchFrom builds a patch keyed by id that overwrites every field with next's values
func FolderPatchFrom(id string, next Folder) FolderPatch {
	return FolderPatch{
		ID:         id,
		SetID:      &next.ID,
		Name:       &next.Name,
		ParentID:   &next.ParentID,
		UpdatedAt:  &next.UpdatedAt,
		Optimistic: &next.Optimistic,
	}
}

// FilePatch is a partial file
type FilePatch struct {
	ID         string
	Name       *string
	FolderID   *string
	Optimistic *bool
}

// PatchID returns the id of the file the patch applies to
func (p FilePatch) PatchID() string { return p.ID }

// Merge shallow-merges the set fields over f
func (p FilePatch) Merge(f File) File {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.FolderID != nil {
		f.FolderID = *p.FolderID
	}
	if p.Optimistic != nil {
		f.Optimistic = *p.Optimistic
	}
	return f
}

// UploadPatch is a partial upload used for status and progress updates
type UploadPatch struct {
	ID       string
	Status   *UploadStatus
	Progress *float64
	Err      *string
}

// PatchID returns the id of the upload the patch applies to
func (p UploadPatch) PatchID() string { return p.ID }

// Merge shallow-merges the set fields over u
func (p UploadPatch) Merge(u Upload) Upload {
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.Progress != nil {
		u.Progress = *p.Progress
	}
	if p.Err != nil {
		u.Err = *p.Err
	}
	return u
}

// Ptr returns a pointer to v, handy when building patches
func Ptr[T any](v T) *T {
	return &v
}
