package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileTypeOf(t *testing.T) {
	tests := []struct {
		mime string
		want FileType
	}{
		{"image/png", FileTypeImage},
		{"IMAGE/JPEG", FileTypeImage},
		{"video/mp4", FileTypeVideo},
		{"audio/mpeg", FileTypeAudio},
		{"text/plain; charset=utf-8", FileTypeText},
		{"application/json", FileTypeText},
		{"application/pdf", FileTypeDocument},
		{"application/zip", FileTypeArchive},
		{"application/x-tar", FileTypeArchive},
		{"application/octet-stream", FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, FileTypeOf(tt.mime))
		})
	}
}

func TestOptimisticID(t *testing.T) {
	id := NewOptimisticID()

	assert.True(t, IsOptimisticID(id))
	assert.NotEqual(t, id, NewOptimisticID())
	assert.Equal(t, "optimistic-abc", OptimisticID("abc"))
	assert.False(t, IsOptimisticID("photos/"))
}

func TestFolderPatch_MergesOnlySetFields(t *testing.T) {
	folder := Folder{ID: "a/", Name: "a", ParentID: "", Optimistic: true}

	got := FolderPatch{ID: "a/", Name: Ptr("b")}.Merge(folder)

	assert.Equal(t, Folder{ID: "a/", Name: "b", ParentID: "", Optimistic: true}, got)
}

func TestFolderPatch_SetID(t *testing.T) {
	folder := Folder{ID: "a/", Name: "a"}

	got := FolderPatchFrom("a/", Folder{ID: "b/", Name: "b"}).Merge(folder)

	assert.Equal(t, "b/", got.ID)
	assert.Equal(t, "b", got.Name)
	assert.False(t, got.Optimistic)
}
