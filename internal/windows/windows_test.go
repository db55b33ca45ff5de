package windows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HaiFongPan/r2drive/internal/model"
)

func TestToggles_HookSeesCurrentValue(t *testing.T) {
	var seen []bool
	toggles := NewToggles(map[string]ToggleConfig{
		"a": {PreToggle: func(open bool) { seen = append(seen, open) }},
	})

	require.NoError(t, toggles.Toggle("a"))
	require.NoError(t, toggles.Toggle("a"))
	require.NoError(t, toggles.Toggle("a", true))
	require.NoError(t, toggles.Toggle("a", true))

	assert.Equal(t, []bool{false, true, false, true}, seen)
	assert.True(t, toggles.IsOpen("a"))
}

func TestToggles_UnknownName(t *testing.T) {
	toggles := NewToggles(map[string]ToggleConfig{"a": {Init: true}})

	assert.Error(t, toggles.Toggle("b"))
	assert.True(t, toggles.IsOpen("a"))
	assert.False(t, toggles.IsOpen("b"))
}

func TestManager_InitialState(t *testing.T) {
	m := NewManager(map[Name]bool{UploadFilesWindow: true})

	assert.True(t, m.IsOpenUploadFilesWindow())
	assert.False(t, m.IsOpenFolderWindow())
	assert.False(t, m.IsOpenTrashWindow())
	assert.True(t, m.AnyOpen())
}

func TestManager_OpenDeleteWindowStagesData(t *testing.T) {
	m := NewManager(nil)
	files := []model.File{{ID: "a.txt"}}
	folders := []model.Folder{{ID: "docs/"}}

	m.OpenDeleteWindow(files, folders)

	assert.True(t, m.IsOpenDeleteWindow())
	assert.Equal(t, files, m.FilesToDelete())
	assert.Equal(t, folders, m.FoldersToDelete())

	// 关闭窗口不会清空暂存数据
	m.Toggle(DeleteWindow)
	assert.False(t, m.IsOpenDeleteWindow())
	assert.Len(t, m.FilesToDelete(), 1)

	// 再次打开时清空旧数据
	m.Toggle(DeleteWindow)
	assert.True(t, m.IsOpenDeleteWindow())
	assert.Empty(t, m.FilesToDelete())
	assert.Empty(t, m.FoldersToDelete())
}

func TestManager_OpenDeleteWindowNothingToDelete(t *testing.T) {
	m := NewManager(nil)

	m.OpenDeleteWindow(nil, nil)

	assert.False(t, m.IsOpenDeleteWindow())
}

func TestManager_ClearDeleteData(t *testing.T) {
	m := NewManager(nil)
	m.OpenDeleteWindow([]model.File{{ID: "a"}}, []model.Folder{{ID: "b/"}})

	m.ClearDeleteData(DeleteFiles)
	assert.Empty(t, m.FilesToDelete())
	assert.Len(t, m.FoldersToDelete(), 1)

	m.ClearDeleteData(DeleteFolders)
	assert.Empty(t, m.FoldersToDelete())
}

func TestManager_OpenFolderWindow(t *testing.T) {
	m := NewManager(nil)

	m.OpenFolderWindow(&model.Folder{ID: "docs/", Name: "docs"})
	require.NotNil(t, m.FolderToEdit())
	assert.Equal(t, "docs", m.FolderToEdit().Name)

	// 已打开时再次调用仍保持打开
	m.OpenFolderWindow(nil)
	assert.True(t, m.IsOpenFolderWindow())
	assert.NotNil(t, m.FolderToEdit())

	m.Toggle(FolderWindow, false)
	m.OpenFolderWindow(nil)
	assert.Nil(t, m.FolderToEdit(), "reopening for a new folder drops the stale edit target")
}

func TestManager_OpenViewWindow(t *testing.T) {
	m := NewManager(nil)

	m.OpenViewWindow(&model.File{ID: "a.png"}, nil)
	require.NotNil(t, m.FileToView())
	assert.Nil(t, m.FolderToView())

	m.Toggle(ViewWindow)
	m.OpenViewWindow(nil, &model.Folder{ID: "docs/"})
	assert.Nil(t, m.FileToView())
	require.NotNil(t, m.FolderToView())
	assert.Equal(t, "docs/", m.FolderToView().ID)
}

func TestManager_MoveDetails(t *testing.T) {
	m := NewManager(nil)
	details := &MoveDetails{
		FilesToMove:  []model.File{{ID: "a.txt"}},
		FromFolderID: "",
	}

	m.OpenMoveWindow(details)
	assert.True(t, m.IsOpenMoveWindow())
	require.True(t, m.MovePending())
	assert.Equal(t, details.FilesToMove, m.MoveDetails().FilesToMove)

	details.FilesToMove[0].ID = "mutated"
	assert.Equal(t, "a.txt", m.MoveDetails().FilesToMove[0].ID)

	m.UpdateMoveDetails(nil)
	assert.False(t, m.MovePending())
	assert.Nil(t, m.MoveDetails())
}

type fakeInput struct{ opened int }

func (f *fakeInput) Open() { f.opened++ }

func TestManager_OpenFileInput(t *testing.T) {
	m := NewManager(nil)
	m.OpenFileInput()

	in := &fakeInput{}
	m.SetFileInput(in)
	m.OpenFileInput()

	assert.Equal(t, 1, in.opened)
}

func TestParseInit(t *testing.T) {
	initial := ParseInit(map[string]bool{
		"uploadfileswindow": true,
		"TrashWindow":       false,
		"bogus":             true,
	})

	assert.Equal(t, map[Name]bool{UploadFilesWindow: true, TrashWindow: false}, initial)
}
